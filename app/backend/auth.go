package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Semior001/briefly/app/store"
)

const (
	signupPath = "/api/auth/signup"
	loginPath  = "/api/auth/login"
)

// SignupRequest defines parameters of a new user.
type SignupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup registers a new user.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (store.Identity, error) {
	var u store.Identity
	if err := c.do(ctx, call{method: http.MethodPost, path: signupPath, body: req}, &u); err != nil {
		return store.Identity{}, fmt.Errorf("sign up: %w", err)
	}
	return u, nil
}

// Login exchanges email and password to the access token.
func (c *Client) Login(ctx context.Context, email, password string) (store.Credentials, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp struct {
		AccessToken string         `json:"access_token"`
		TokenType   string         `json:"token_type"`
		User        store.Identity `json:"user"`
	}

	if err := c.do(ctx, call{method: http.MethodPost, path: loginPath, body: body}, &resp); err != nil {
		return store.Credentials{}, fmt.Errorf("log in: %w", err)
	}

	if resp.AccessToken == "" {
		return store.Credentials{}, fmt.Errorf("log in: empty access token")
	}

	return store.Credentials{Token: resp.AccessToken, User: resp.User}, nil
}

// CurrentUser returns the user the token of the context belongs to.
func (c *Client) CurrentUser(ctx context.Context) (store.Identity, error) {
	var u store.Identity
	if err := c.do(ctx, call{method: http.MethodGet, path: "/api/auth/me"}, &u); err != nil {
		return store.Identity{}, fmt.Errorf("get current user: %w", err)
	}
	return u, nil
}

// Logout notifies the backend that the token of the context is no longer used.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, call{method: http.MethodPost, path: "/api/auth/logout"}, nil); err != nil {
		return fmt.Errorf("log out: %w", err)
	}
	return nil
}
