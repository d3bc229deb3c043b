package session

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	values  map[string]string
	expires time.Time
}

// MemoryStore keeps sessions in process. Idle sessions expire after ttl.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A ttl of zero disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (m *MemoryStore) live(sid string) (*entry, bool) {
	e, ok := m.sessions[sid]
	if !ok {
		return nil, false
	}
	if m.ttl > 0 && m.now().After(e.expires) {
		return nil, false
	}
	return e, true
}

func (m *MemoryStore) Get(_ context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.live(sid)
	if !ok {
		return "", false, nil
	}
	v, ok := e.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, sid, key, value string) error {
	if sid == "" {
		return ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(sid)
	if !ok {
		e = &entry{values: make(map[string]string)}
		m.sessions[sid] = e
	}
	e.values[key] = value
	e.expires = m.now().Add(m.ttl)
	return nil
}

func (m *MemoryStore) Take(_ context.Context, sid, key string) (string, bool, error) {
	if sid == "" {
		return "", false, ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.live(sid)
	if !ok {
		return "", false, nil
	}
	v, ok := e.values[key]
	delete(e.values, key)
	return v, ok, nil
}

func (m *MemoryStore) Delete(_ context.Context, sid string, keys ...string) error {
	if sid == "" {
		return ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[sid]; ok {
		for _, k := range keys {
			delete(e.values, k)
		}
	}
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	if sid == "" {
		return ErrNoSession
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sid)
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (m *MemoryStore) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for sid, e := range m.sessions {
		if now.After(e.expires) {
			delete(m.sessions, sid)
			removed++
		}
	}
	return removed
}
