package supabase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	client "github.com/mamadbah2/telurku/pkg/clients/supabase"
)

const (
	feedTable     = "feed"
	feedWithJoins = "*,barns(name),profiles(email)"
)

// FeedRepository implements repository.FeedRepository over PostgREST.
type FeedRepository struct {
	client *client.APIClient
	logger *zap.Logger
}

var _ repository.FeedRepository = (*FeedRepository)(nil)

// NewFeedRepository builds a feed repository on the shared backend handle.
func NewFeedRepository(c *client.APIClient, logger *zap.Logger) *FeedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedRepository{client: c, logger: logger}
}

// List returns feed records newest first. Type, barn and profile filters run
// on the backend; the free-text search spans joined columns and runs here.
func (r *FeedRepository) List(ctx context.Context, filter models.FeedFilter) ([]models.FeedRecord, error) {
	q := r.client.From(feedTable).Select(feedWithJoins)
	if filter.Type != "" {
		q.Eq("type", filter.Type)
	}
	if filter.BarnID != "" {
		q.Eq("barn_id", filter.BarnID)
	}
	if filter.ProfileID != "" {
		q.Eq("profile_id", filter.ProfileID)
	}
	q.Order(orderCreatedDesc, false)

	var rows []feedRow
	if err := q.Execute(ctx, &rows); err != nil {
		r.logger.Error("error fetching feed records", zap.Error(err))
		return nil, translate(err)
	}

	out := make([]models.FeedRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.toModel()
		if rec.Matches(filter.Search) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Get fetches one feed record by id.
func (r *FeedRepository) Get(ctx context.Context, id string) (models.FeedRecord, error) {
	var row feedRow
	err := r.client.From(feedTable).
		Select(feedWithJoins).
		Eq("id", id).
		Single(ctx, &row)
	if err != nil {
		r.logger.Error("error fetching feed record", zap.Error(err), zap.String("id", id))
		return models.FeedRecord{}, translate(err)
	}
	return row.toModel(), nil
}

// Create inserts a feed record and returns the stored row.
func (r *FeedRepository) Create(ctx context.Context, in models.FeedInput) (models.FeedRecord, error) {
	var rows []feedRow
	if err := r.client.From(feedTable).Insert(ctx, newFeedWrite(in), &rows); err != nil {
		r.logger.Error("error creating feed record", zap.Error(err))
		return models.FeedRecord{}, translate(err)
	}
	if len(rows) == 0 {
		return models.FeedRecord{}, fmt.Errorf("create feed record: empty representation")
	}
	return rows[0].toModel(), nil
}

// Update replaces the editable fields of a feed record.
func (r *FeedRepository) Update(ctx context.Context, id string, in models.FeedInput) (models.FeedRecord, error) {
	var rows []feedRow
	if err := r.client.From(feedTable).Eq("id", id).Update(ctx, newFeedWrite(in), &rows); err != nil {
		r.logger.Error("error updating feed record", zap.Error(err), zap.String("id", id))
		return models.FeedRecord{}, translate(err)
	}
	if len(rows) == 0 {
		return models.FeedRecord{}, fmt.Errorf("update feed record %s: %w", id, repository.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// Delete removes a feed record by id.
func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	var rows []feedRow
	if err := r.client.From(feedTable).Eq("id", id).Delete(ctx, &rows); err != nil {
		r.logger.Error("error deleting feed record", zap.Error(err), zap.String("id", id))
		return translate(err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("delete feed record %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
