package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
)

// ProfileRepository is the in-process profiles collection.
type ProfileRepository struct{ store *Store }

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository exposes the store's profiles.
func NewProfileRepository(store *Store) *ProfileRepository {
	return &ProfileRepository{store: store}
}

func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	out, err := r.ListWithRoles(ctx)
	for i := range out {
		out[i].Role = ""
	}
	return out, err
}

func (r *ProfileRepository) ListWithRoles(context.Context) ([]models.Profile, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]models.Profile, 0, len(r.store.profiles))
	for _, p := range r.store.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *ProfileRepository) Role(_ context.Context, id string) (models.Role, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	p, ok := r.store.profiles[id]
	if !ok {
		return "", fmt.Errorf("get profile %s: %w", id, repository.ErrNotFound)
	}
	return p.Role, nil
}

// AuditRepository reads the audit entries the memory barn repository records.
type AuditRepository struct{ store *Store }

var _ repository.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository exposes the store's audit log.
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

func (r *AuditRepository) ListByBarn(_ context.Context, barnID string) ([]models.AuditEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []models.AuditEntry
	for i := len(r.store.audit) - 1; i >= 0; i-- {
		if e := r.store.audit[i]; e.BarnID == barnID {
			out = append(out, e)
		}
	}
	return out, nil
}

// SnapshotRepository keeps daily snapshots in memory.
type SnapshotRepository struct{ store *Store }

var _ repository.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository exposes the store's snapshot archive.
func NewSnapshotRepository(store *Store) *SnapshotRepository {
	return &SnapshotRepository{store: store}
}

// SaveDailySnapshot replaces any snapshot for the same day.
func (r *SnapshotRepository) SaveDailySnapshot(_ context.Context, snapshot models.DailySnapshot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for i, s := range r.store.snapshots {
		if s.Date.Equal(snapshot.Date) {
			r.store.snapshots[i] = snapshot
			return nil
		}
	}
	r.store.snapshots = append(r.store.snapshots, snapshot)
	return nil
}

func (r *SnapshotRepository) ListSnapshots(_ context.Context, limit int) ([]models.DailySnapshot, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := append([]models.DailySnapshot(nil), r.store.snapshots...)
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
