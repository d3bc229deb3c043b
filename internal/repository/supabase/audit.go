package supabase

import (
	"context"

	"go.uber.org/zap"

	"github.com/mamadbah2/telurku/internal/domain/models"
	"github.com/mamadbah2/telurku/internal/repository"
	client "github.com/mamadbah2/telurku/pkg/clients/supabase"
)

const auditTable = "barn_audit_log"

// AuditRepository implements repository.AuditRepository over PostgREST.
type AuditRepository struct {
	client *client.APIClient
	logger *zap.Logger
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

// NewAuditRepository builds an audit log reader on the shared backend handle.
func NewAuditRepository(c *client.APIClient, logger *zap.Logger) *AuditRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditRepository{client: c, logger: logger}
}

// ListByBarn returns the audit entries of one barn, newest first.
func (r *AuditRepository) ListByBarn(ctx context.Context, barnID string) ([]models.AuditEntry, error) {
	var rows []auditRow
	err := r.client.From(auditTable).
		Select("*").
		Eq("barn_id", barnID).
		Order(orderCreatedDesc, false).
		Execute(ctx, &rows)
	if err != nil {
		r.logger.Error("error fetching audit log", zap.Error(err), zap.String("barn_id", barnID))
		return nil, translate(err)
	}

	out := make([]models.AuditEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}
