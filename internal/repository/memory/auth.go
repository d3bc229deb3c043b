package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

// ErrInvalidCredentials is returned by SignInWithPassword on a bad email or password.
var ErrInvalidCredentials = repository.ErrInvalidCredentials

// ErrInvalidToken is returned for unknown or revoked access tokens.
var ErrInvalidToken = errors.New("invalid access token")

// IdentityProvider signs users in against the accounts added with Store.AddUser.
type IdentityProvider struct {
	store *Store
	ttl   time.Duration
}

// NewIdentityProvider issues opaque tokens valid for ttl.
func NewIdentityProvider(store *Store, ttl time.Duration) *IdentityProvider {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &IdentityProvider{store: store, ttl: ttl}
}

func (p *IdentityProvider) SignInWithPassword(_ context.Context, email, password string) (models.AuthSession, error) {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	u, ok := p.store.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || u.password != password {
		return models.AuthSession{}, ErrInvalidCredentials
	}
	token := uuid.NewString()
	p.store.tokens[token] = u.id
	return models.AuthSession{
		AccessToken:  token,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    p.store.now().Add(p.ttl),
		User:         models.AuthUser{ID: u.id, Email: u.email},
	}, nil
}

func (p *IdentityProvider) SignOut(_ context.Context, accessToken string) error {
	p.store.mu.Lock()
	defer p.store.mu.Unlock()
	if _, ok := p.store.tokens[accessToken]; !ok {
		return ErrInvalidToken
	}
	delete(p.store.tokens, accessToken)
	return nil
}

func (p *IdentityProvider) GetUser(_ context.Context, accessToken string) (models.AuthUser, error) {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	id, ok := p.store.tokens[accessToken]
	if !ok {
		return models.AuthUser{}, ErrInvalidToken
	}
	return models.AuthUser{ID: id, Email: p.store.profiles[id].Email}, nil
}
