package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/walkin/internal/model"
)

// Register creates an account. The backend emails a verification token.
func (c *Client) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	var u model.User
	err := c.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: reg, public: true, auth: true}, &u, "user")
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a token pair. Storing the tokens is the
// caller's job.
func (c *Client) Login(ctx context.Context, email, password string) (*model.LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res model.LoginResult
	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: body, public: true, auth: true}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) VerifyEmail(ctx context.Context, token, email string) error {
	body := map[string]string{"token": token, "email": email}
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/verify-email", body: body, public: true, auth: true}, nil)
}

func (c *Client) ResendVerification(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/resend-verification", body: body, public: true, auth: true}, nil)
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var u model.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", auth: true}, &u, "user"); err != nil {
		return nil, err
	}
	return &u, nil
}

// Logout tells the backend to drop the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout", auth: true}, nil)
}
