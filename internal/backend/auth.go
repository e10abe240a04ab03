package backend

import (
	"context"
	"net/http"

	"github.com/artelier/promptforge/internal/domain"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup registers a new account and returns the issued identity.
func (c *Client) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	var out domain.User
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges email/password for the backend identity. The opaque token
// info in the response is not used; the user id itself is the bearer
// credential.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var out struct {
		User domain.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/login", credentials{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Me fetches the profile for the current bearer credential.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
