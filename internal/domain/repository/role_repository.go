package repository

import (
	"context"
	"errors"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no row matches; scoped
// lookups return it for out-of-scope and soft-deleted rows as well.
var ErrNotFound = errors.New("not found")

// Pagination selects a page of a result set. Page is 1-based.
type Pagination struct {
	Page  int
	Limit int
}

// Offset returns the SQL offset for the page.
func (p Pagination) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// RoleFilter narrows role listings. A nil Status matches every status.
type RoleFilter struct {
	Status *entity.RoleStatus
}

// RoleRepository defines persistence for role records.
//
// Every read is scoped at query time by (companyID, parentID): a role
// is visible when it is a non-deleted tenant role of that company or a
// non-deleted default role (company_id IS NULL) of the same category.
// Rows outside the scope are never materialized.
type RoleRepository interface {
	// CreateWithPermissions persists the role and its permission
	// attachments in a single transaction. On failure nothing is kept.
	CreateWithPermissions(ctx context.Context, r *entity.Role, permissionIDs []string) error

	// FindScoped returns the role by id if it is visible to the given
	// tenant and category. Missing, soft-deleted and out-of-scope rows
	// all return ErrNotFound.
	FindScoped(ctx context.Context, id, companyID, parentID string) (*entity.Role, error)

	// NameTaken reports whether a non-deleted role with the name exists
	// within the tenant.
	NameTaken(ctx context.Context, companyID, name string) (bool, error)

	// ListScoped returns the visible roles ordered by creation time
	// descending, plus the total row count before pagination.
	ListScoped(ctx context.Context, companyID, parentID string, f RoleFilter, p Pagination) ([]*entity.Role, int64, error)

	// Update persists description/status changes. Name, parent and
	// company are immutable and never written.
	Update(ctx context.Context, r *entity.Role) error

	// SoftDelete marks the role deleted; the row is retained.
	SoftDelete(ctx context.Context, id string) error

	// CountByCompany returns the raw number of non-deleted roles owned
	// by the tenant.
	CountByCompany(ctx context.Context, companyID string) (int64, error)
}
