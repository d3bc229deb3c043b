// Package repository defines the data-access contracts shared by the
// backend implementations, together with the sentinel errors handlers use
// to tell failure classes apart.
package repository

import (
	"context"
	"errors"

	"github.com/mamadbah2/telurku/internal/domain/models"
)

// ErrNotFound is returned when a lookup, update, or delete by id matched nothing.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when the backend refuses the caller access to a row.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidCredentials is returned when the identity provider rejects an email and password.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// BarnRepository reads and writes the barns collection.
type BarnRepository interface {
	List(ctx context.Context, filter models.BarnFilter) ([]models.Barn, error)
	ListByProfile(ctx context.Context, profileID string) ([]models.Barn, error)
	ListByStatus(ctx context.Context, statuses ...models.BarnStatus) ([]models.Barn, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (models.Barn, error)
	Create(ctx context.Context, in models.BarnInput) (models.Barn, error)
	Update(ctx context.Context, id string, patch models.BarnPatch) (models.Barn, error)
	Delete(ctx context.Context, id string) error
}

// FeedRepository reads and writes the feed collection.
type FeedRepository interface {
	List(ctx context.Context, filter models.FeedFilter) ([]models.FeedRecord, error)
	Get(ctx context.Context, id string) (models.FeedRecord, error)
	Create(ctx context.Context, in models.FeedInput) (models.FeedRecord, error)
	Update(ctx context.Context, id string, in models.FeedInput) (models.FeedRecord, error)
	Delete(ctx context.Context, id string) error
}

// ProfileRepository reads the profiles collection.
type ProfileRepository interface {
	List(ctx context.Context) ([]models.Profile, error)
	ListWithRoles(ctx context.Context) ([]models.Profile, error)
	Role(ctx context.Context, id string) (models.Role, error)
}

// AuditRepository reads the backend-maintained barn audit log.
type AuditRepository interface {
	ListByBarn(ctx context.Context, barnID string) ([]models.AuditEntry, error)
}

// SnapshotRepository archives daily statistics snapshots.
type SnapshotRepository interface {
	SaveDailySnapshot(ctx context.Context, snapshot models.DailySnapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]models.DailySnapshot, error)
}

// ExportSink receives tabular dashboard exports.
type ExportSink interface {
	AppendRows(ctx context.Context, rows [][]string) error
}
