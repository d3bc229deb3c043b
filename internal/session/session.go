// Package session keeps per-browser dashboard state: the signed-in role and
// user id, backend tokens, and the one-shot hand-off payloads passed between
// views. Sessions are keyed by an opaque id carried in a cookie.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Keys stored under a session.
const (
	KeyUserRole     = "userRole"
	KeyUserID       = "userId"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyCurrentBarn  = "currentBarn"
	KeyEditBarn     = "editBarn"
	KeyViewBarnID   = "viewBarnId"
	KeyCurrentFeed  = "currentFeed"
	KeyEditFeed     = "editFeed"
)

// ErrNoSession is returned when an operation needs a session id and none was given.
var ErrNoSession = errors.New("session: missing session id")

// Store is a string key/value map per session id.
type Store interface {
	Get(ctx context.Context, sid, key string) (string, bool, error)
	Set(ctx context.Context, sid, key, value string) error
	// Take returns the value and removes it in one step.
	Take(ctx context.Context, sid, key string) (string, bool, error)
	Delete(ctx context.Context, sid string, keys ...string) error
	// Clear drops every key of the session.
	Clear(ctx context.Context, sid string) error
}

// NewID returns a fresh session id.
func NewID() string {
	return uuid.NewString()
}

// PutJSON serializes v under key.
func PutJSON(ctx context.Context, s Store, sid, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode session value %s: %w", key, err)
	}
	return s.Set(ctx, sid, key, string(raw))
}

// GetJSON decodes the value under key into dst without removing it.
func GetJSON(ctx context.Context, s Store, sid, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, sid, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode session value %s: %w", key, err)
	}
	return true, nil
}

// TakeJSON decodes and removes the value under key.
func TakeJSON(ctx context.Context, s Store, sid, key string, dst any) (bool, error) {
	raw, ok, err := s.Take(ctx, sid, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("decode session value %s: %w", key, err)
	}
	return true, nil
}
