package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradepsych/coach-web-ui/internal/api"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClientErrorDecoding(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "Error object message",
			status:      http.StatusUnauthorized,
			body:        `{"error":{"message":"invalid credentials"}}`,
			wantMessage: "invalid credentials",
		},
		{
			name:        "Detail string",
			status:      http.StatusNotFound,
			body:        `{"detail":"session not found"}`,
			wantMessage: "session not found",
		},
		{
			name:        "Validation detail array",
			status:      http.StatusUnprocessableEntity,
			body:        `{"detail":[{"loc":["body","symbol"],"msg":"field required"}]}`,
			wantMessage: "field required",
		},
		{
			name:        "Empty body falls back to status text",
			status:      http.StatusBadGateway,
			body:        "",
			wantMessage: "Bad Gateway",
		},
		{
			name:        "Malformed body falls back to status text",
			status:      http.StatusInternalServerError,
			body:        "<html>boom</html>",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := api.NewClient(srv.URL, time.Second, nil, discardLogger())

			_, err := client.Me(context.Background())
			if err == nil {
				t.Fatal("Me() error = nil, want *api.Error")
			}

			var apiErr *api.Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Me() error = %v, want *api.Error", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Error.Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Error.Message = %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestClientRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u1","email":"trader@example.com"}`))
	}))
	defer srv.Close()

	token := func() string { return "tok-123" }
	client := api.NewClient(srv.URL+"/", time.Second, token, discardLogger())

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}

	if gotPath != "/v1/users/me" {
		t.Errorf("request path = %q, want %q", gotPath, "/v1/users/me")
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer tok-123")
	}
	if user.Email != "trader@example.com" {
		t.Errorf("user.Email = %q, want %q", user.Email, "trader@example.com")
	}
}

func TestClientAnonymousOmitsAuthHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"id":"guest","email":"guest@tradecoach.app","is_guest":true}`))
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, time.Second, nil, discardLogger())

	if _, err := client.Me(context.Background()); err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if gotAuth != "" {
		t.Errorf("Authorization = %q, want empty", gotAuth)
	}
}
