package api

import (
	"context"

	"campus/internal/models"
)

// LoginResult is the successful login payload.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login exchanges credentials for a bearer token. The caller hands the
// result to the session manager; the client itself stores nothing.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: username, Password: password}

	var out LoginResult
	if err := c.postJSON(ctx, "auth.login", "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	AccountName string `json:"account_name"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Img         string `json:"img"`
}

// Register creates an account. Registration does not log the user in; the
// caller follows up with Login.
func (c *Client) Register(ctx context.Context, in RegisterInput) error {
	return c.postJSON(ctx, "auth.register", "/api/auth/register", in, nil)
}

// RequestPasswordReset asks the server to mail a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	req := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.postJSON(ctx, "auth.password_reset", "/api/auth/password-reset", req, nil)
}
