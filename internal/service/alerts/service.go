// Package alerts detects barns in alert or warning state and fans the
// result out to the configured notifiers.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// Title heads every notification.
const Title = "Telurku Dashboard Alert"

// Item is one barn that needs attention.
type Item struct {
	BarnID string            `json:"barn_id"`
	Name   string            `json:"name"`
	Status models.BarnStatus `json:"status"`
}

// Line renders the item as "<name>: 🔴 Alert" or "<name>: 🟡 Warning".
func (i Item) Line() string {
	if i.Status == models.StatusAlert {
		return i.Name + ": 🔴 Alert"
	}
	return i.Name + ": 🟡 Warning"
}

// Notification is the result of one alert check.
type Notification struct {
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Total   int       `json:"total"`
	Items   []Item    `json:"items"`
	At      time.Time `json:"at"`
}

// Notifier delivers a notification to an external channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, n Notification) error
}

// Source is the barn data an alert check reads.
type Source interface {
	Statistics(ctx context.Context) (models.BarnStatistics, error)
	Attention(ctx context.Context) ([]models.Barn, error)
}

// Service runs alert checks.
type Service struct {
	source    Source
	notifiers []Notifier
	logger    *zap.Logger
	now       func() time.Time

	// mu serializes Run; delivered[i] is the flagged set notifiers[i] last accepted.
	mu        sync.Mutex
	delivered []string
}

// NewService wires the alert service with optional external notifiers.
func NewService(source Source, logger *zap.Logger, notifiers ...Notifier) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:    source,
		notifiers: notifiers,
		delivered: make([]string, len(notifiers)),
		logger:    logger,
		now:       time.Now,
	}
}

// HasNotifiers reports whether any external channel is configured.
func (s *Service) HasNotifiers() bool { return len(s.notifiers) > 0 }

// Check builds the current notification. ok is false when nothing needs attention.
func (s *Service) Check(ctx context.Context) (Notification, bool, error) {
	stats, err := s.source.Statistics(ctx)
	if err != nil {
		return Notification{}, false, fmt.Errorf("alert statistics: %w", err)
	}
	barns, err := s.source.Attention(ctx)
	if err != nil {
		return Notification{}, false, fmt.Errorf("alert barns: %w", err)
	}

	total := stats.AlertCount()
	if total == 0 || len(barns) == 0 {
		return Notification{}, false, nil
	}

	n := Notification{Title: Title, Type: "warning", Total: total, At: s.now()}
	lines := make([]string, 0, len(barns))
	for _, b := range barns {
		item := Item{BarnID: b.ID, Name: b.Name, Status: b.Status}
		if b.Status == models.StatusAlert {
			n.Type = "danger"
		}
		n.Items = append(n.Items, item)
		lines = append(lines, item.Line())
	}
	n.Message = strings.Join(lines, ", ")
	return n, true, nil
}

// Run performs a check and pushes the flagged set to every notifier that has
// not yet accepted it. A notifier that fails is retried on the next run. The
// notification is returned either way so callers can show it in-app.
func (s *Service) Run(ctx context.Context) (Notification, bool, error) {
	n, ok, err := s.Check(ctx)
	if err != nil {
		s.logger.Error("error checking for alerts", zap.Error(err))
		return Notification{}, false, err
	}

	key := ""
	if ok {
		key = fingerprint(n.Items)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for i, notifier := range s.notifiers {
		if s.delivered[i] == key {
			continue
		}
		if !ok {
			s.delivered[i] = key
			continue
		}
		if err := notifier.Notify(ctx, n); err != nil {
			s.logger.Error("alert notification failed", zap.String("notifier", notifier.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
			continue
		}
		s.delivered[i] = key
		s.logger.Info("alert notification sent", zap.String("notifier", notifier.Name()), zap.Int("barns", len(n.Items)))
	}
	return n, ok, errors.Join(errs...)
}

func fingerprint(items []Item) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.BarnID + "=" + string(it.Status)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}
