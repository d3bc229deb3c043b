// Package auth signs dashboard users in and out against the backend and
// guards routes by role.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	"github.com/mamadbah2/telurku/internal/session"
	"github.com/mamadbah2/telurku/pkg/clients/supabase"
)

var (
	// ErrUnauthenticated means there is no live backend session; callers send the user to login.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the user is signed in but lacks the required role.
	ErrForbidden = errors.New("Access denied. Admin privileges required.")
	// ErrInvalidRole means the profile role is neither admin nor viewer.
	ErrInvalidRole = errors.New("Unauthorized access. Admin or viewer role required.")
	// ErrRoleVerification means the profile role could not be read after sign-in.
	ErrRoleVerification = errors.New("Failed to verify user role")
	// ErrInvalidCredentials means the backend rejected the email and password.
	ErrInvalidCredentials = errors.New("Invalid email or password")
	// ErrSignInUnavailable means sign-in failed for a reason other than the credentials.
	ErrSignInUnavailable = errors.New("Sign-in is unavailable, please try again")
)

// IdentityProvider is the backend authentication API.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (models.AuthSession, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (models.AuthUser, error)
}

// RoleLookup reads a profile's role from the backend.
type RoleLookup interface {
	Role(ctx context.Context, profileID string) (models.Role, error)
}

// Principal is the signed-in user behind a session.
type Principal struct {
	UserID      string      `json:"user_id"`
	Email       string      `json:"email,omitempty"`
	Role        models.Role `json:"role"`
	AccessToken string      `json:"-"`
}

// Context returns ctx carrying the principal's backend token so row-level
// security applies to every query made with it.
func (p Principal) Context(ctx context.Context) context.Context {
	if p.AccessToken == "" {
		return ctx
	}
	return supabase.WithAccessToken(ctx, p.AccessToken)
}

// Service signs users in and out and answers the route guards.
type Service struct {
	idp       IdentityProvider
	roles     RoleLookup
	store     session.Store
	jwtSecret []byte
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires the auth service. jwtSecret may be empty, in which case
// token signatures are left to the backend and only expiry is read locally.
func NewService(idp IdentityProvider, roles RoleLookup, store session.Store, jwtSecret string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		idp:       idp,
		roles:     roles,
		store:     store,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
		now:       time.Now,
	}
}

// Login signs in with email and password, checks the profile role, and
// records the session. Nothing is stored when the role check fails.
func (s *Service) Login(ctx context.Context, sid, email, password string) (Principal, error) {
	authSession, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidCredentials) {
			s.logger.Warn("login rejected", zap.String("email", email), zap.Error(err))
			return Principal{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		s.logger.Error("sign in failed", zap.String("email", email), zap.Error(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrSignInUnavailable, err)
	}

	lookupCtx := supabase.WithAccessToken(ctx, authSession.AccessToken)
	role, err := s.roles.Role(lookupCtx, authSession.User.ID)
	if err != nil {
		s.logger.Error("role lookup failed", zap.String("user_id", authSession.User.ID), zap.Error(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrRoleVerification, err)
	}
	if !role.Valid() {
		s.logger.Warn("login rejected for role", zap.String("user_id", authSession.User.ID), zap.String("role", string(role)))
		return Principal{}, ErrInvalidRole
	}

	values := []struct{ key, value string }{
		{session.KeyUserRole, string(role)},
		{session.KeyUserID, authSession.User.ID},
		{session.KeyAccessToken, authSession.AccessToken},
		{session.KeyRefreshToken, authSession.RefreshToken},
	}
	for _, kv := range values {
		if err := s.store.Set(ctx, sid, kv.key, kv.value); err != nil {
			if clearErr := s.store.Clear(ctx, sid); clearErr != nil {
				s.logger.Error("failed to discard partial session", zap.Error(clearErr))
			}
			return Principal{}, fmt.Errorf("store session: %w", err)
		}
	}

	s.logger.Info("user signed in", zap.String("user_id", authSession.User.ID), zap.String("role", string(role)))
	return Principal{
		UserID:      authSession.User.ID,
		Email:       authSession.User.Email,
		Role:        role,
		AccessToken: authSession.AccessToken,
	}, nil
}

// Logout revokes the backend session and then clears the stored session.
// When revocation fails the stored session is kept and the error returned.
func (s *Service) Logout(ctx context.Context, sid string) error {
	token, ok, err := s.store.Get(ctx, sid, session.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}
	if ok && token != "" {
		if err := s.idp.SignOut(ctx, token); err != nil {
			s.logger.Error("logout failed", zap.Error(err))
			return fmt.Errorf("sign out: %w", err)
		}
	}
	if err := s.store.Clear(ctx, sid); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentSession returns the principal for sid, or ErrUnauthenticated when
// the stored token is missing, expired, or rejected by the backend.
func (s *Service) CurrentSession(ctx context.Context, sid string) (Principal, error) {
	if sid == "" {
		return Principal{}, ErrUnauthenticated
	}
	token, ok, err := s.store.Get(ctx, sid, session.KeyAccessToken)
	if err != nil {
		return Principal{}, fmt.Errorf("read session: %w", err)
	}
	if !ok || token == "" {
		return Principal{}, ErrUnauthenticated
	}
	if err := s.checkToken(token); err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	user, err := s.idp.GetUser(ctx, token)
	if err != nil {
		s.logger.Debug("session rejected by backend", zap.Error(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	role, _, err := s.store.Get(ctx, sid, session.KeyUserRole)
	if err != nil {
		return Principal{}, fmt.Errorf("read session: %w", err)
	}
	return Principal{UserID: user.ID, Email: user.Email, Role: models.Role(role), AccessToken: token}, nil
}

// checkToken rejects an expired JWT locally. With a configured secret the
// signature is verified too. Opaque tokens are left to the backend.
func (s *Service) checkToken(token string) error {
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired()}

	if len(s.jwtSecret) > 0 {
		_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		}, opts...)
		return err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if !s.now().Before(exp.Time) {
		return jwt.ErrTokenExpired
	}
	return nil
}

// RequireAuth is the guard for every authenticated view.
func (s *Service) RequireAuth(ctx context.Context, sid string) (Principal, error) {
	return s.CurrentSession(ctx, sid)
}

// RequireAdmin re-reads the role from the backend instead of trusting the
// stored copy.
func (s *Service) RequireAdmin(ctx context.Context, sid string) (Principal, error) {
	p, err := s.CurrentSession(ctx, sid)
	if err != nil {
		return Principal{}, err
	}
	role, err := s.roles.Role(p.Context(ctx), p.UserID)
	if err != nil {
		s.logger.Error("admin check failed", zap.String("user_id", p.UserID), zap.Error(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	if role != models.RoleAdmin {
		return Principal{}, ErrForbidden
	}
	p.Role = role
	return p, nil
}

// RequireMember admits admins and viewers.
func (s *Service) RequireMember(ctx context.Context, sid string) (Principal, error) {
	p, err := s.CurrentSession(ctx, sid)
	if err != nil {
		return Principal{}, err
	}
	role, err := s.roles.Role(p.Context(ctx), p.UserID)
	if err != nil {
		s.logger.Error("member check failed", zap.String("user_id", p.UserID), zap.Error(err))
		return Principal{}, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	if !role.Valid() {
		return Principal{}, ErrInvalidRole
	}
	p.Role = role
	return p, nil
}

// StoredRole returns the role recorded at login. It is only good for
// deciding what to show; authorization goes through RequireAdmin.
func (s *Service) StoredRole(ctx context.Context, sid string) (models.Role, error) {
	if sid == "" {
		return "", nil
	}
	role, _, err := s.store.Get(ctx, sid, session.KeyUserRole)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	return models.Role(role), nil
}
