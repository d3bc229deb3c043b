package session

import "sync"

// Guard rejects a second submission for the same key while the first is
// still being processed.
type Guard struct {
	inflight sync.Map
}

// NewGuard returns an empty guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Acquire marks key busy. ok is false when a submission for key is already
// in flight; otherwise release must be called once processing ends.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	if _, busy := g.inflight.LoadOrStore(key, struct{}{}); busy {
		return nil, false
	}
	var once sync.Once
	return func() {
		once.Do(func() { g.inflight.Delete(key) })
	}, true
}
