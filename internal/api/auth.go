package api

import (
	"context"
	"net/http"

	"github.com/tradepsych/coach-web-ui/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the account-creation payload. Registration does not
// authenticate; the caller logs in separately afterwards.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthTokens, error) {
	var tokens models.AuthTokens
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &tokens)
	return tokens, err
}

// Register creates a new account and returns the created profile.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &user)
	return user, err
}

// Me fetches the profile behind the current token. Without a token the
// backend may serve a guest identity instead of failing.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user)
	return user, err
}
