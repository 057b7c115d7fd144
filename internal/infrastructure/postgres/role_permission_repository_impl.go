package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

type RolePermissionRepository struct {
	pool *pgxpool.Pool
}

func NewRolePermissionRepository(pool *pgxpool.Pool) *RolePermissionRepository {
	return &RolePermissionRepository{pool: pool}
}

func (r *RolePermissionRepository) IDsByRole(ctx context.Context, roleID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT permission_id FROM role_permissions WHERE role_id = $1
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Sync applies the reconciliation result inside one transaction so a
// failing insert rolls back the preceding delete and concurrent readers
// never observe a half-applied permission set.
func (r *RolePermissionRepository) Sync(ctx context.Context, roleID string, toInsert, toDelete []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if len(toDelete) > 0 {
		if _, err := tx.Exec(ctx, `
			DELETE FROM role_permissions
			WHERE role_id = $1 AND permission_id = ANY($2)
		`, roleID, toDelete); err != nil {
			return err
		}
	}
	for _, pid := range toInsert {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2)
			ON CONFLICT (role_id, permission_id) DO NOTHING
		`, roleID, pid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

var _ repository.RolePermissionRepository = (*RolePermissionRepository)(nil)
