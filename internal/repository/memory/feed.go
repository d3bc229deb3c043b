package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

// FeedRepository is the in-process feed collection.
type FeedRepository struct{ store *Store }

var _ repository.FeedRepository = (*FeedRepository)(nil)

// NewFeedRepository exposes the store's feed records.
func NewFeedRepository(store *Store) *FeedRepository {
	return &FeedRepository{store: store}
}

func (r *FeedRepository) List(_ context.Context, filter models.FeedFilter) ([]models.FeedRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.FeedRecord
	for _, f := range r.store.feed {
		if filter.Type != "" && f.Type != filter.Type {
			continue
		}
		if filter.BarnID != "" && f.BarnID != filter.BarnID {
			continue
		}
		if filter.ProfileID != "" && f.ProfileID != filter.ProfileID {
			continue
		}
		f = r.store.withJoins(f)
		if f.Matches(filter.Search) {
			out = append(out, f)
		}
	}
	newestFirst(out, func(f models.FeedRecord) *time.Time { return f.CreatedAt }, func(f models.FeedRecord) string { return f.ID })
	return out, nil
}

func (r *FeedRepository) Get(_ context.Context, id string) (models.FeedRecord, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	f, ok := r.store.feed[id]
	if !ok {
		return models.FeedRecord{}, fmt.Errorf("get feed record %s: %w", id, repository.ErrNotFound)
	}
	return r.store.withJoins(f), nil
}

func (r *FeedRepository) Create(_ context.Context, in models.FeedInput) (models.FeedRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	f := fromInput(in)
	f.ID = uuid.NewString()
	f.CreatedAt = r.store.stamp()
	r.store.feed[f.ID] = f
	return r.store.withJoins(f), nil
}

func (r *FeedRepository) Update(_ context.Context, id string, in models.FeedInput) (models.FeedRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.feed[id]
	if !ok {
		return models.FeedRecord{}, fmt.Errorf("update feed record %s: %w", id, repository.ErrNotFound)
	}
	f := fromInput(in)
	f.ID = id
	f.CreatedAt = existing.CreatedAt
	r.store.feed[id] = f
	return r.store.withJoins(f), nil
}

func (r *FeedRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.feed[id]; !ok {
		return fmt.Errorf("delete feed record %s: %w", id, repository.ErrNotFound)
	}
	delete(r.store.feed, id)
	return nil
}

func fromInput(in models.FeedInput) models.FeedRecord {
	return models.FeedRecord{
		BarnID:                 in.BarnID,
		ProfileID:              in.ProfileID,
		Type:                   in.Type,
		Amount:                 models.Float(in.Amount),
		Date:                   in.Date,
		DeviceID:               in.DeviceID,
		ConsumptionRate:        in.ConsumptionRate,
		EstimatedDaysRemaining: in.EstimatedDaysRemaining,
		LastRefill:             in.LastRefill,
	}
}
