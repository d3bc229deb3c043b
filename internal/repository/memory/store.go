// Package memory keeps every collection in process. It backs the "memory"
// driver for local runs and the service and handler tests.
package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu        sync.RWMutex
	profiles  map[string]models.Profile
	barns     map[string]models.Barn
	feed      map[string]models.FeedRecord
	audit     []models.AuditEntry
	snapshots []models.DailySnapshot
	users     map[string]user
	tokens    map[string]string
	now       func() time.Time
}

type user struct {
	id       string
	email    string
	password string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]models.Profile),
		barns:    make(map[string]models.Barn),
		feed:     make(map[string]models.FeedRecord),
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		now:      time.Now,
	}
}

// SetClock overrides the time source used for created_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// AddUser registers an account that can sign in, with its profile row.
func (s *Store) AddUser(profile models.Profile, password string) models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	s.profiles[profile.ID] = profile
	s.users[strings.ToLower(profile.Email)] = user{id: profile.ID, email: profile.Email, password: password}
	return profile
}

// PutBarn stores b as-is, assigning an id and created_at when missing.
func (s *Store) PutBarn(b models.Barn) models.Barn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt == nil {
		t := s.now()
		b.CreatedAt = &t
	}
	s.barns[b.ID] = b
	return b
}

// PutFeed stores f as-is, assigning an id and created_at when missing.
func (s *Store) PutFeed(f models.FeedRecord) models.FeedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt == nil {
		t := s.now()
		f.CreatedAt = &t
	}
	s.feed[f.ID] = f
	return f
}

func (s *Store) stamp() *time.Time {
	t := s.now()
	return &t
}

// withOwner fills the embedded profile summary the way the backend join does.
func (s *Store) withOwner(b models.Barn) models.Barn {
	if p, ok := s.profiles[b.ProfileID]; ok {
		b.Owner = &models.ProfileRef{Name: p.Name, Email: p.Email}
	} else {
		b.Owner = nil
	}
	return b
}

func (s *Store) withJoins(f models.FeedRecord) models.FeedRecord {
	if b, ok := s.barns[f.BarnID]; ok {
		f.Barn = &models.BarnRef{Name: b.Name}
	} else {
		f.Barn = nil
	}
	if p, ok := s.profiles[f.ProfileID]; ok {
		f.Profile = &models.ProfileRef{Email: p.Email}
	} else {
		f.Profile = nil
	}
	return f
}

func (s *Store) recordAudit(barnID string, op models.Operation, oldBarn, newBarn *models.Barn) {
	s.audit = append(s.audit, models.AuditEntry{
		BarnID:    barnID,
		Operation: op,
		OldData:   toObject(oldBarn),
		NewData:   toObject(newBarn),
		CreatedAt: s.stamp(),
	})
}

func toObject(b *models.Barn) map[string]any {
	if b == nil {
		return nil
	}
	raw, err := json.Marshal(b)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// newestFirst sorts by created_at descending with id as a stable tiebreak.
func newestFirst[T any](items []T, created func(T) *time.Time, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := created(items[i]), created(items[j])
		switch {
		case a == nil && b == nil:
			return id(items[i]) > id(items[j])
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return id(items[i]) > id(items[j])
		default:
			return a.After(*b)
		}
	})
}
