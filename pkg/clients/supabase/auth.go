package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// User is the GoTrue user object.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is the GoTrue token response for a password grant.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Expiry returns the absolute expiry of the access token.
func (s Session) Expiry(now time.Time) time.Time {
	if s.ExpiresAt > 0 {
		return time.Unix(s.ExpiresAt, 0)
	}
	return now.Add(time.Duration(s.ExpiresIn) * time.Second)
}

// SignInWithPassword authenticates with email and password.
func (c *APIClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.anonKey).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": password}).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session := new(Session)
	if err := decodeBody(resp, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut revokes the session behind accessToken.
func (c *APIClient) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.request(WithAccessToken(ctx, accessToken)).Post("/auth/v1/logout")
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	return nil
}

// GetUser returns the user that owns accessToken. The backend rejects expired or revoked tokens.
func (c *APIClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	resp, err := c.request(WithAccessToken(ctx, accessToken)).Get("/auth/v1/user")
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	user := new(User)
	if err := decodeBody(resp, user); err != nil {
		return nil, err
	}
	return user, nil
}
