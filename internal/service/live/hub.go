// Package live fans dashboard updates out to attached viewers.
package live

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event kinds published on the hub.
const (
	EventRefresh = "refresh"
	EventAlerts  = "alerts"
)

// Event is one message pushed to subscribers.
type Event struct {
	Type string    `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Hub is a publish/subscribe fan-out with one buffered channel per subscriber.
// A subscriber that falls behind misses events instead of blocking publishers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	nextID  uint64
	buffer  int
	dropped uint64
	closed  bool
	logger  *zap.Logger
}

// NewHub creates a hub whose subscriber channels hold buffer events.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer < 1 {
		buffer = 8
	}
	return &Hub{subs: make(map[uint64]chan Event), buffer: buffer, logger: logger}
}

// Subscribe attaches a viewer. Call the returned func to detach; it closes the channel.
// After Close the returned channel is already closed.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.buffer)
	h.subs[id] = ch
	h.logger.Debug("viewer attached", zap.Uint64("id", id), zap.Int("viewers", len(h.subs)))

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; !ok {
				return
			}
			delete(h.subs, id)
			close(ch)
			h.logger.Debug("viewer detached", zap.Uint64("id", id), zap.Int("viewers", len(h.subs)))
		})
	}
}

// Subscribers is the number of attached viewers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber with room in its buffer and
// returns how many received it.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			delivered++
		default:
			h.dropped++
		}
	}
	return delivered
}

// Dropped is the number of events skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close detaches every viewer by closing its channel. Later subscribers get
// a closed channel straight away.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	h.logger.Info("hub closed")
}
