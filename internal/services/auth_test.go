package services_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
	"github.com/tradepsych/coach-web-ui/internal/services"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newAuthFixture wires a bolt store, a client whose bearer token is read from
// that store, and an auth session, all against the given backend handler.
func newAuthFixture(t *testing.T, backend http.HandlerFunc) (services.BoltDB, *services.AuthSession) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	db := newTestDB(t)
	token := func() string {
		tok, _ := db.State(services.StateAccessToken)
		return tok
	}
	client := api.NewClient(srv.URL, time.Second, token, discardLogger())
	return db, services.NewAuthSession(db, client, discardLogger())
}

func TestAuthInitWithValidToken(t *testing.T) {
	db, auth := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid token"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.User{ID: "u1", Email: "trader@example.com", FullName: "Trader"})
	})

	if err := db.SetState(services.StateAccessToken, "good-token"); err != nil {
		t.Fatal(err)
	}

	auth.Init(context.Background())

	user := auth.CurrentUser()
	if user == nil {
		t.Fatal("CurrentUser() = nil, want profile")
	}
	if user.Email != "trader@example.com" {
		t.Errorf("user.Email = %q, want %q", user.Email, "trader@example.com")
	}
	if !auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = false, want true")
	}
}

func TestAuthInitClearsStaleToken(t *testing.T) {
	db, auth := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"token expired"}}`))
			return
		}
		// Anonymous probe serves the guest identity.
		_ = json.NewEncoder(w).Encode(models.User{ID: "g1", Email: "guest@tradecoach.app"})
	})

	if err := db.SetState(services.StateAccessToken, "stale-token"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetState(services.StateRefreshToken, "stale-refresh"); err != nil {
		t.Fatal(err)
	}

	auth.Init(context.Background())

	if tok, _ := db.State(services.StateAccessToken); tok != "" {
		t.Errorf("access token = %q, want cleared", tok)
	}
	if tok, _ := db.State(services.StateRefreshToken); tok != "" {
		t.Errorf("refresh token = %q, want cleared", tok)
	}

	// The guest sentinel email marks the fallback identity even when the
	// backend does not set is_guest.
	user := auth.CurrentUser()
	if user == nil {
		t.Fatal("CurrentUser() = nil, want guest")
	}
	if !user.IsGuest {
		t.Error("user.IsGuest = false, want true")
	}
	if auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false for guest")
	}
}

func TestAuthInitWithoutBackend(t *testing.T) {
	_, auth := newAuthFixture(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	// Init never fails; an unreachable identity just means no user.
	auth.Init(context.Background())

	if user := auth.CurrentUser(); user != nil {
		t.Errorf("CurrentUser() = %+v, want nil", user)
	}
	if auth.IsAuthenticated() {
		t.Error("IsAuthenticated() = true, want false")
	}
}

func TestAuthLoginAndLogout(t *testing.T) {
	db, auth := newAuthFixture(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/auth/login":
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatal(err)
			}
			if req.Password != "secret-pass" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"message":"invalid credentials"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(models.AuthTokens{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				TokenType:    "bearer",
				ExpiresIn:    3600,
			})
		case "/v1/users/me":
			if r.Header.Get("Authorization") != "Bearer access-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(models.User{ID: "u1", Email: "trader@example.com"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	if err := auth.Login(context.Background(), "trader@example.com", "wrong"); err == nil {
		t.Fatal("Login() with bad password error = nil, want error")
	}
	if tok, _ := db.State(services.StateAccessToken); tok != "" {
		t.Errorf("access token after failed login = %q, want empty", tok)
	}

	if err := auth.Login(context.Background(), "trader@example.com", "secret-pass"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if tok, _ := db.State(services.StateAccessToken); tok != "access-1" {
		t.Errorf("access token = %q, want %q", tok, "access-1")
	}
	if !auth.IsAuthenticated() {
		t.Error("IsAuthenticated() after login = false, want true")
	}

	auth.Logout()
	if tok, _ := db.State(services.StateAccessToken); tok != "" {
		t.Errorf("access token after logout = %q, want empty", tok)
	}
	if auth.CurrentUser() != nil {
		t.Error("CurrentUser() after logout != nil, want nil")
	}
}
