package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
	"github.com/rolecatalog/rbac-engine/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, company_id, role_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.CompanyID, u.RoleID)
	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

func (r *UserRepository) getBy(ctx context.Context, predicate string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, company_id, role_id, created_at, updated_at
		FROM users
		WHERE `+predicate, arg)

	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.CompanyID,
		&u.RoleID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// RoleOf returns the user's own role regardless of status or deletion;
// the caller decides how dead roles are treated.
func (r *UserRepository) RoleOf(ctx context.Context, userID string) (*entity.Role, error) {
	role := &entity.Role{}
	row := r.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.slug, r.description, r.status, r.parent_id, r.company_id,
		       r.created_at, r.updated_at, r.deleted_at
		FROM roles r
		JOIN users u ON u.role_id = r.id
		WHERE u.id = $1
	`, userID)

	if err := row.Scan(&role.ID, &role.Name, &role.Slug, &role.Description, &role.Status,
		&role.ParentID, &role.CompanyID, &role.CreatedAt, &role.UpdatedAt, &role.DeletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
