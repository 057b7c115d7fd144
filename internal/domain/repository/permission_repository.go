package repository

import (
	"context"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
)

// PermissionRepository is the read-only permission catalog.
type PermissionRepository interface {
	// FindAvailable returns the permissions available to a role
	// category, i.e. those attached to the category's parent template
	// role.
	FindAvailable(ctx context.Context, parentID string) ([]*entity.Permission, error)

	// FindByRole returns the permissions currently granted to a role.
	FindByRole(ctx context.Context, roleID string) ([]*entity.Permission, error)
}

// RolePermissionRepository persists the role<->permission junction.
type RolePermissionRepository interface {
	// IDsByRole returns the permission ids currently attached to the role.
	IDsByRole(ctx context.Context, roleID string) ([]string, error)

	// Sync applies a reconciliation result in one transaction: the
	// toDelete ids are bulk-removed and the toInsert ids bulk-added.
	// Either both steps commit or neither does.
	Sync(ctx context.Context, roleID string, toInsert, toDelete []string) error
}
