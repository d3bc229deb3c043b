package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

// BarnRepository is the in-process barns collection.
type BarnRepository struct{ store *Store }

var _ repository.BarnRepository = (*BarnRepository)(nil)

// NewBarnRepository exposes the store's barns.
func NewBarnRepository(store *Store) *BarnRepository {
	return &BarnRepository{store: store}
}

func (r *BarnRepository) List(_ context.Context, filter models.BarnFilter) ([]models.Barn, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var out []models.Barn
	for _, b := range r.store.barns {
		if term != "" && !strings.Contains(strings.ToLower(b.Name), term) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.ProfileID != "" && b.ProfileID != filter.ProfileID {
			continue
		}
		out = append(out, r.store.withOwner(b))
	}
	newestFirst(out, func(b models.Barn) *time.Time { return b.CreatedAt }, func(b models.Barn) string { return b.ID })

	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return []models.Barn{}, nil
		}
		end := min(filter.Offset+filter.Limit, len(out))
		out = out[filter.Offset:end]
	}
	return out, nil
}

func (r *BarnRepository) ListByProfile(ctx context.Context, profileID string) ([]models.Barn, error) {
	out, err := r.List(ctx, models.BarnFilter{ProfileID: profileID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *BarnRepository) ListByStatus(ctx context.Context, statuses ...models.BarnStatus) ([]models.Barn, error) {
	all, err := r.List(ctx, models.BarnFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]models.Barn, 0, len(all))
	for _, b := range all {
		for _, s := range statuses {
			if b.Status == s {
				out = append(out, b)
				break
			}
		}
	}
	return out, nil
}

func (r *BarnRepository) Count(context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.barns), nil
}

func (r *BarnRepository) Get(_ context.Context, id string) (models.Barn, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	b, ok := r.store.barns[id]
	if !ok {
		return models.Barn{}, fmt.Errorf("get barn %s: %w", id, repository.ErrNotFound)
	}
	return r.store.withOwner(b), nil
}

func (r *BarnRepository) Create(_ context.Context, in models.BarnInput) (models.Barn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	status := in.Status
	if !status.Known() {
		status = models.StatusOK
	}
	b := models.Barn{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Chickens:    models.Int(in.Chickens),
		EggsToday:   models.Int(in.EggsToday),
		Temperature: models.Float(in.Temperature),
		Humidity:    models.Float(in.Humidity),
		Status:      status,
		ProfileID:   in.ProfileID,
		CreatedAt:   r.store.stamp(),
	}
	b.UpdatedAt = b.CreatedAt
	r.store.barns[b.ID] = b
	r.store.recordAudit(b.ID, models.OperationCreate, nil, &b)
	return r.store.withOwner(b), nil
}

func (r *BarnRepository) Update(_ context.Context, id string, patch models.BarnPatch) (models.Barn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.barns[id]
	if !ok {
		return models.Barn{}, fmt.Errorf("update barn %s: %w", id, repository.ErrNotFound)
	}
	old := b
	patch.Apply(&b)
	b.UpdatedAt = r.store.stamp()
	r.store.barns[id] = b
	r.store.recordAudit(id, models.OperationUpdate, &old, &b)
	return r.store.withOwner(b), nil
}

func (r *BarnRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	b, ok := r.store.barns[id]
	if !ok {
		return fmt.Errorf("delete barn %s: %w", id, repository.ErrNotFound)
	}
	delete(r.store.barns, id)
	r.store.recordAudit(id, models.OperationDelete, &b, nil)
	return nil
}
