package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/models"
)

// guestEmail is the sentinel address older backends serve for anonymous
// identities; backends with an explicit is_guest flag take precedence.
const guestEmail = "guest@tradecoach.app"

// AuthSession holds the bearer tokens and the derived current user. Tokens
// live in the local store so they survive restarts; the profile is held in
// memory and re-derived by probing /users/me.
type AuthSession struct {
	store  BoltDB
	client *api.Client
	logger *slog.Logger

	mu   sync.RWMutex
	user *models.User
}

// NewAuthSession creates the session store. Call Init afterwards to derive
// the current user from any persisted token.
func NewAuthSession(store BoltDB, client *api.Client, logger *slog.Logger) *AuthSession {
	return &AuthSession{
		store:  store,
		client: client,
		logger: logger.With(slog.String("module", "auth")),
	}
}

// Token returns the persisted access token, or an empty string. It is the
// bearer source for the API client.
func (a *AuthSession) Token() string {
	tok, err := a.store.State(StateAccessToken)
	if err != nil {
		a.logger.Error("Failed to read access token", slog.String("err", err.Error()))
		return ""
	}
	return tok
}

// Init derives the current user at startup. With a stored token it probes
// /users/me; if that fails the token is stale, so both tokens are cleared and
// the probe is retried without credentials to detect a guest identity. Init
// never fails: the worst outcome is a nil user.
func (a *AuthSession) Init(ctx context.Context) {
	if a.Token() != "" {
		user, err := a.client.Me(ctx)
		if err == nil {
			a.setUser(&user)
			return
		}
		a.logger.Warn("Stored token rejected, clearing credentials", slog.String("err", err.Error()))
		a.clearTokens()
	}

	user, err := a.client.Me(ctx)
	if err != nil {
		a.logger.Debug("No anonymous identity served", slog.String("err", err.Error()))
		a.setUser(nil)
		return
	}
	if user.IsGuest || user.Email == guestEmail {
		user.IsGuest = true
		a.setUser(&user)
		return
	}
	a.setUser(nil)
}

// CurrentUser returns the derived profile, or nil when unauthenticated.
func (a *AuthSession) CurrentUser() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// IsAuthenticated reports whether a non-guest user is logged in.
func (a *AuthSession) IsAuthenticated() bool {
	u := a.CurrentUser()
	return u != nil && !u.IsGuest
}

// Login exchanges credentials for tokens and persists them, then best-effort
// fetches the profile. A profile failure after a successful login leaves the
// user unset rather than failing the login; navigation decisions stay with
// the caller.
func (a *AuthSession) Login(ctx context.Context, email, password string) error {
	tokens, err := a.client.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	if err := a.store.SetState(StateAccessToken, tokens.AccessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := a.store.SetState(StateRefreshToken, tokens.RefreshToken); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}

	user, err := a.client.Me(ctx)
	if err != nil {
		a.logger.Warn("Profile fetch after login failed", slog.String("err", err.Error()))
		a.setUser(nil)
		return nil
	}
	a.setUser(&user)
	return nil
}

// Register creates an account without authenticating it.
func (a *AuthSession) Register(ctx context.Context, req api.RegisterRequest) (models.User, error) {
	user, err := a.client.Register(ctx, req)
	if err != nil {
		return models.User{}, fmt.Errorf("registration failed: %w", err)
	}
	return user, nil
}

// Logout clears the persisted tokens and the in-memory user.
func (a *AuthSession) Logout() {
	a.clearTokens()
	a.setUser(nil)
}

func (a *AuthSession) setUser(user *models.User) {
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
}

func (a *AuthSession) clearTokens() {
	if err := a.store.DeleteState(StateAccessToken); err != nil {
		a.logger.Error("Failed to clear access token", slog.String("err", err.Error()))
	}
	if err := a.store.DeleteState(StateRefreshToken); err != nil {
		a.logger.Error("Failed to clear refresh token", slog.String("err", err.Error()))
	}
}
