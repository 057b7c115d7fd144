package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

// scopePredicate is the visibility rule applied to every read: the
// tenant's own roles plus default roles of the same category, never
// deleted rows.
const scopePredicate = `
	deleted_at IS NULL
	AND parent_id = $2
	AND (company_id = $1 OR company_id IS NULL)
`

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) CreateWithPermissions(ctx context.Context, role *entity.Role, permissionIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO roles (name, slug, description, status, parent_id, company_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, role.Name, role.Slug, role.Description, role.Status, role.ParentID, role.CompanyID)
	if err := row.Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return err
	}

	for _, pid := range permissionIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			VALUES ($1, $2)
			ON CONFLICT (role_id, permission_id) DO NOTHING
		`, role.ID, pid); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *RoleRepository) FindScoped(ctx context.Context, id, companyID, parentID string) (*entity.Role, error) {
	role := &entity.Role{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, description, status, parent_id, company_id, created_at, updated_at, deleted_at
		FROM roles
		WHERE id = $3 AND `+scopePredicate,
		companyID, parentID, id)

	if err := row.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.Status,
		&role.ParentID, &role.CompanyID, &role.CreatedAt, &role.UpdatedAt, &role.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) NameTaken(ctx context.Context, companyID, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM roles
			WHERE company_id = $1 AND lower(name) = lower($2) AND deleted_at IS NULL
		)
	`, companyID, name).Scan(&exists)
	return exists, err
}

func (r *RoleRepository) ListScoped(ctx context.Context, companyID, parentID string, f repository.RoleFilter, p repository.Pagination) ([]*entity.Role, int64, error) {
	where := scopePredicate
	args := []any{companyID, parentID}
	if f.Status != nil {
		where += ` AND status = $3`
		args = append(args, *f.Status)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM roles WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limitPos := len(args) + 1
	args = append(args, p.Limit, p.Offset())
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, description, status, parent_id, company_id, created_at, updated_at, deleted_at
		FROM roles
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT $`+strconv.Itoa(limitPos)+` OFFSET $`+strconv.Itoa(limitPos+1),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*entity.Role
	for rows.Next() {
		role := &entity.Role{}
		if err := rows.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.Status,
			&role.ParentID, &role.CompanyID, &role.CreatedAt, &role.UpdatedAt, &role.DeletedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, role)
	}
	return out, total, rows.Err()
}

func (r *RoleRepository) Update(ctx context.Context, role *entity.Role) error {
	role.UpdatedAt = time.Now().UTC()
	res, err := r.pool.Exec(ctx, `
		UPDATE roles
		SET description = $1, status = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`, role.Description, role.Status, role.UpdatedAt, role.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) SoftDelete(ctx context.Context, id string) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE roles
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *RoleRepository) CountByCompany(ctx context.Context, companyID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM roles WHERE company_id = $1 AND deleted_at IS NULL
	`, companyID).Scan(&n)
	return n, err
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
