package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

type PermissionRepository struct {
	pool *pgxpool.Pool
}

func NewPermissionRepository(pool *pgxpool.Pool) *PermissionRepository {
	return &PermissionRepository{pool: pool}
}

// FindAvailable returns the permissions attached to the category's
// parent template role.
func (r *PermissionRepository) FindAvailable(ctx context.Context, parentID string) ([]*entity.Permission, error) {
	return r.queryPermissionsByRole(ctx, parentID)
}

func (r *PermissionRepository) FindByRole(ctx context.Context, roleID string) ([]*entity.Permission, error) {
	return r.queryPermissionsByRole(ctx, roleID)
}

func (r *PermissionRepository) queryPermissionsByRole(ctx context.Context, roleID string) ([]*entity.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.slug
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.slug
	`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Permission, 0)
	for rows.Next() {
		p := &entity.Permission{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

var _ repository.PermissionRepository = (*PermissionRepository)(nil)
