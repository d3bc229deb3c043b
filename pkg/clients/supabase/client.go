// Package supabase is a small resty-backed client for a hosted Supabase
// project: GoTrue password auth and PostgREST table access.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned by NewClient when the project URL or key is missing.
var ErrNotConfigured = errors.New("supabase client not configured")

// ErrClientNotInitialized is returned by Connect when the backend stays unreachable after the retry.
var ErrClientNotInitialized = errors.New("supabase client not initialized")

// Config holds the project endpoint and public key.
type Config struct {
	URL     string
	AnonKey string
	Timeout time.Duration
}

// APIClient is the shared handle to the hosted backend.
type APIClient struct {
	http    *resty.Client
	anonKey string
}

// NewClient builds a client for the project described by cfg.
func NewClient(cfg Config) (*APIClient, error) {
	base := strings.TrimSuffix(strings.TrimSpace(cfg.URL), "/")
	if base == "" || cfg.AnonKey == "" {
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(base).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &APIClient{http: restyClient, anonKey: cfg.AnonKey}, nil
}

// Connect builds the client and verifies the backend answers its health check.
// A failed check is logged and retried exactly once after retryDelay.
func Connect(ctx context.Context, cfg Config, retryDelay time.Duration, logger *zap.Logger) (*APIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	err = client.Ping(ctx)
	if err == nil {
		logger.Info("supabase client initialized", zap.String("url", cfg.URL))
		return client, nil
	}

	logger.Error("supabase health check failed, retrying once", zap.Error(err), zap.Duration("delay", retryDelay))

	timer := time.NewTimer(retryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrClientNotInitialized, ctx.Err())
	case <-timer.C:
	}

	if err := client.Ping(ctx); err != nil {
		logger.Error("failed to initialize supabase after retry", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrClientNotInitialized, err)
	}

	logger.Info("supabase client initialized after retry", zap.String("url", cfg.URL))
	return client, nil
}

// Ping calls the auth health endpoint.
func (c *APIClient) Ping(ctx context.Context) error {
	resp, err := c.request(ctx).Get("/auth/v1/health")
	if err != nil {
		return fmt.Errorf("supabase health: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}
	return nil
}

// From starts a query against the named table.
func (c *APIClient) From(table string) *Query {
	return newQuery(c, table)
}

type accessTokenKey struct{}

// WithAccessToken attaches a user access token to ctx. Requests made with the
// returned context run under that user's row-level security policies.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the user token attached to ctx, if any.
func AccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}

func (c *APIClient) request(ctx context.Context) *resty.Request {
	token, ok := AccessToken(ctx)
	if !ok {
		token = c.anonKey
	}
	return c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token)
}
