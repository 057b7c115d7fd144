package entity

import "time"

// RoleStatus is the lifecycle state of a role. Inactive roles remain
// assigned to users but grant nothing until re-activated.
type RoleStatus string

const (
	RoleStatusActive   RoleStatus = "ACTIVE"
	RoleStatusInactive RoleStatus = "INACTIVE"
)

// Valid reports whether s is one of the known statuses.
func (s RoleStatus) Valid() bool {
	return s == RoleStatusActive || s == RoleStatusInactive
}

// Role is the aggregate root of the role catalog.
//
// CompanyID is nil for default/global roles shared by every tenant in
// the same category (ParentID). Name and ParentID are immutable after
// creation; only Description and Status may change. Roles are soft
// deleted: DeletedAt is set and the row is kept for audit history and
// users that still reference it.
type Role struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Status      RoleStatus
	ParentID    string
	CompanyID   *string // nil => default role, visible to every tenant in the category
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDefault reports whether the role is a platform-provided default
// (not owned by any tenant).
func (r *Role) IsDefault() bool {
	return r.CompanyID == nil
}

// OwnedBy reports whether the role belongs to the given tenant.
func (r *Role) OwnedBy(companyID string) bool {
	return r.CompanyID != nil && *r.CompanyID == companyID
}
