package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolecatalog/rbac-engine/internal/domain/event"
)

// AuditRepository persists consumed domain events as audit rows. It is
// used only by the audit worker.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

func (r *AuditRepository) Record(ctx context.Context, e event.Event) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO audit_log (event_name, actor_id, role_id, metadata)
		VALUES ($1, $2, $3, $4)
	`, e.Name, e.Actor, e.RoleID, meta)
	return err
}
