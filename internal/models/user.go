package models

import "time"

// User represents the authenticated (or guest) profile served by the backend.
type User struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FullName         string    `json:"full_name"`
	SubscriptionTier string    `json:"subscription_tier"`
	IsGuest          bool      `json:"is_guest"`
	CreatedAt        time.Time `json:"created_at"`
}

// AuthTokens is the payload returned by a successful login.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Project is a user-scoped grouping context that scopes journals, sessions and
// knowledge documents.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
