package api

import (
	"context"
	"net/http"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// LoginResult represents a successful login response. Its four fields are
// exactly what the session store persists.
type LoginResult struct {
	AccessToken         string `json:"access_token"`
	TokenType           string `json:"token_type"`
	UserType            string `json:"user_type"`
	UserID              string `json:"user_id"`
	ForcePasswordChange bool   `json:"force_password_change"`
}

// User represents the current user as reported by GET /auth/me
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
	UserType   string `json:"user_type"`
}

// ChangePasswordRequest represents the change-password request body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login authenticates against the backend and returns the bearer token plus
// user identity. Returns ErrInvalidCredentials when the backend rejects the
// credentials.
func (c *Client) Login(ctx context.Context, username, password string, isAdmin bool) (*LoginResult, error) {
	req := LoginRequest{
		Username: username,
		Password: password,
		IsAdmin:  isAdmin,
	}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", nil, req, &result); err != nil {
		if statusOf(err) == http.StatusUnauthorized {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return &result, nil
}

// CurrentUser validates the token against the backend and returns the user it
// belongs to. A nil user with a nil error means the backend returned an empty
// payload, which callers must treat as an invalid session.
func (c *Client) CurrentUser(ctx context.Context, token string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, nil, &user); err != nil {
		return nil, err
	}

	if user.ID == "" {
		return nil, nil
	}
	return &user, nil
}

// ChangePassword changes the authenticated user's password. Returns
// ErrCurrentPasswordIncorrect when the backend rejects the current password.
func (c *Client) ChangePassword(ctx context.Context, token, currentPassword, newPassword string) error {
	req := ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}

	if err := c.do(ctx, http.MethodPost, "/auth/change-password", token, nil, req, nil); err != nil {
		if status := statusOf(err); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
			return ErrCurrentPasswordIncorrect
		}
		return err
	}

	return nil
}
