package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// LoginResult is the outcome of a credential submission.
type LoginResult struct {
	Token string
	User  domain.User
}

// Login handles POST {api}/auth/login with {email, password}. Unauthenticated.
// A rejected credential (HTTP 401/403 or "success": false) is returned as
// domain.ErrUnauthorized.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp struct {
		Success bool      `json:"success"`
		Token   string    `json:"token"`
		User    *wireUser `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Some backends answer an unknown e-mail with 404.
			return LoginResult{}, fmt.Errorf("upstream.Client.Login: %w", domain.ErrUnauthorized)
		}
		return LoginResult{}, fmt.Errorf("upstream.Client.Login: %w", err)
	}
	if !resp.Success || resp.User == nil || resp.Token == "" {
		return LoginResult{}, fmt.Errorf("upstream.Client.Login: %w", domain.ErrUnauthorized)
	}
	return LoginResult{Token: resp.Token, User: resp.User.toDomain()}, nil
}
