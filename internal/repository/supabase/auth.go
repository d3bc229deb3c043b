package supabase

import (
	"context"
	"time"

	"github.com/mamadbah2/telurku/internal/domain/models"
	client "github.com/mamadbah2/telurku/pkg/clients/supabase"
)

// AuthGateway adapts the backend auth endpoints to the auth service.
type AuthGateway struct {
	client *client.APIClient
	now    func() time.Time
}

// NewAuthGateway wraps the shared backend handle.
func NewAuthGateway(c *client.APIClient) *AuthGateway {
	return &AuthGateway{client: c, now: time.Now}
}

// SignInWithPassword authenticates against the backend.
func (g *AuthGateway) SignInWithPassword(ctx context.Context, email, password string) (models.AuthSession, error) {
	session, err := g.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return models.AuthSession{}, translateSignIn(err)
	}
	return models.AuthSession{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresAt:    session.Expiry(g.now()),
		User:         models.AuthUser{ID: session.User.ID, Email: session.User.Email},
	}, nil
}

// SignOut revokes the backend session.
func (g *AuthGateway) SignOut(ctx context.Context, accessToken string) error {
	return g.client.SignOut(ctx, accessToken)
}

// GetUser re-validates accessToken with the backend.
func (g *AuthGateway) GetUser(ctx context.Context, accessToken string) (models.AuthUser, error) {
	user, err := g.client.GetUser(ctx, accessToken)
	if err != nil {
		return models.AuthUser{}, translate(err)
	}
	return models.AuthUser{ID: user.ID, Email: user.Email}, nil
}
