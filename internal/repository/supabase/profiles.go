package supabase

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	client "github.com/mamadbah2/telurku/pkg/clients/supabase"
)

const profilesTable = "profiles"

// ProfileRepository implements repository.ProfileRepository over PostgREST.
type ProfileRepository struct {
	client *client.APIClient
	logger *zap.Logger
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository builds a profile repository on the shared backend handle.
func NewProfileRepository(c *client.APIClient, logger *zap.Logger) *ProfileRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileRepository{client: c, logger: logger}
}

// List returns id, name and email of every profile ordered by name.
func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	return r.list(ctx, "id,name,email")
}

// ListWithRoles is List plus the role column.
func (r *ProfileRepository) ListWithRoles(ctx context.Context) ([]models.Profile, error) {
	return r.list(ctx, "id,name,email,role")
}

func (r *ProfileRepository) list(ctx context.Context, columns string) ([]models.Profile, error) {
	var rows []profileRow
	err := r.client.From(profilesTable).
		Select(columns).
		Order("name", true).
		Execute(ctx, &rows)
	if err != nil {
		r.logger.Error("error fetching profiles", zap.Error(err))
		return nil, translate(err)
	}

	out := make([]models.Profile, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

// Role returns the role column of one profile.
func (r *ProfileRepository) Role(ctx context.Context, id string) (models.Role, error) {
	var row profileRow
	err := r.client.From(profilesTable).
		Select("role").
		Eq("id", id).
		Single(ctx, &row)
	if err != nil {
		r.logger.Error("error fetching profile role", zap.Error(err), zap.String("id", id))
		return "", translate(err)
	}
	return row.toModel().Role, nil
}
