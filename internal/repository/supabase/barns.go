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
	barnsTable       = "barns"
	barnsWithOwner   = "*,profiles(name,email)"
	orderCreatedDesc = "created_at"
)

// BarnRepository implements repository.BarnRepository over PostgREST.
type BarnRepository struct {
	client *client.APIClient
	logger *zap.Logger
}

var _ repository.BarnRepository = (*BarnRepository)(nil)

// NewBarnRepository builds a barn repository on the shared backend handle.
func NewBarnRepository(c *client.APIClient, logger *zap.Logger) *BarnRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BarnRepository{client: c, logger: logger}
}

// List returns barns newest first, narrowed by the non-zero filter fields.
func (r *BarnRepository) List(ctx context.Context, filter models.BarnFilter) ([]models.Barn, error) {
	q := r.client.From(barnsTable).Select(barnsWithOwner)
	if filter.Search != "" {
		q.ILike("name", "*"+filter.Search+"*")
	}
	if filter.Status != "" {
		q.Eq("status", string(filter.Status))
	}
	if filter.ProfileID != "" {
		q.Eq("profile_id", filter.ProfileID)
	}
	q.Order(orderCreatedDesc, false)
	if filter.Limit > 0 {
		q.Range(filter.Offset, filter.Offset+filter.Limit-1)
	}

	var rows []barnRow
	if err := q.Execute(ctx, &rows); err != nil {
		r.logger.Error("error fetching barns", zap.Error(err), zap.Any("filter", filter))
		return nil, translate(err)
	}
	return barnsFromRows(rows), nil
}

// ListByProfile returns the barns owned by a profile ordered by name.
func (r *BarnRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Barn, error) {
	var rows []barnRow
	err := r.client.From(barnsTable).
		Select("*").
		Eq("profile_id", profileID).
		Order("name", true).
		Execute(ctx, &rows)
	if err != nil {
		r.logger.Error("error fetching barns for profile", zap.Error(err), zap.String("profile_id", profileID))
		return nil, translate(err)
	}
	return barnsFromRows(rows), nil
}

// ListByStatus returns every barn whose status is one of statuses.
func (r *BarnRepository) ListByStatus(ctx context.Context, statuses ...models.BarnStatus) ([]models.Barn, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}

	var rows []barnRow
	err := r.client.From(barnsTable).
		Select("*").
		In("status", values...).
		Order(orderCreatedDesc, false).
		Execute(ctx, &rows)
	if err != nil {
		r.logger.Error("error fetching barns by status", zap.Error(err), zap.Strings("statuses", values))
		return nil, translate(err)
	}
	return barnsFromRows(rows), nil
}

// Count returns the exact number of barns.
func (r *BarnRepository) Count(ctx context.Context) (int, error) {
	n, err := r.client.From(barnsTable).Count(ctx)
	if err != nil {
		r.logger.Error("error counting barns", zap.Error(err))
		return 0, translate(err)
	}
	return n, nil
}

// Get fetches one barn by id.
func (r *BarnRepository) Get(ctx context.Context, id string) (models.Barn, error) {
	var row barnRow
	err := r.client.From(barnsTable).
		Select(barnsWithOwner).
		Eq("id", id).
		Single(ctx, &row)
	if err != nil {
		r.logger.Error("error fetching barn", zap.Error(err), zap.String("id", id))
		return models.Barn{}, translate(err)
	}
	return row.toModel(), nil
}

// Create inserts a barn and returns the stored row.
func (r *BarnRepository) Create(ctx context.Context, in models.BarnInput) (models.Barn, error) {
	var rows []barnRow
	if err := r.client.From(barnsTable).Insert(ctx, newBarnWrite(in), &rows); err != nil {
		r.logger.Error("error creating barn", zap.Error(err))
		return models.Barn{}, translate(err)
	}
	if len(rows) == 0 {
		return models.Barn{}, fmt.Errorf("create barn: empty representation")
	}
	return rows[0].toModel(), nil
}

// Update patches a barn by id and returns the updated row.
func (r *BarnRepository) Update(ctx context.Context, id string, patch models.BarnPatch) (models.Barn, error) {
	var rows []barnRow
	if err := r.client.From(barnsTable).Eq("id", id).Update(ctx, patch, &rows); err != nil {
		r.logger.Error("error updating barn", zap.Error(err), zap.String("id", id))
		return models.Barn{}, translate(err)
	}
	if len(rows) == 0 {
		return models.Barn{}, fmt.Errorf("update barn %s: %w", id, repository.ErrNotFound)
	}
	return rows[0].toModel(), nil
}

// Delete removes a barn by id. Deleting an id that no longer exists is ErrNotFound.
func (r *BarnRepository) Delete(ctx context.Context, id string) error {
	var rows []barnRow
	if err := r.client.From(barnsTable).Eq("id", id).Delete(ctx, &rows); err != nil {
		r.logger.Error("error deleting barn", zap.Error(err), zap.String("id", id))
		return translate(err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("delete barn %s: %w", id, repository.ErrNotFound)
	}
	return nil
}
