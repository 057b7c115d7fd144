package application

import (
	"slices"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
)

// Capabilities gating role status transitions.
const (
	CapActivateRole   = "roles.activate"
	CapDeactivateRole = "roles.deactivate"
)

// Actor is the acting principal for a single request. It is built by
// the auth middleware from the session and passed explicitly into every
// catalog operation; the service never trusts a caller-supplied tenant
// id, only the one carried here.
type Actor struct {
	UserID string
	Email  string

	// Role is the principal's own role; its ParentID fixes the category
	// the actor may operate in and its CompanyID (via the user) the tenant.
	Role *entity.Role

	// CompanyID is the acting tenant, derived from the principal.
	CompanyID string

	// Permissions holds the effective permission slugs inherited from Role.
	Permissions []string
}

// HasPermission is the access guard: a plain membership test against
// the actor's effective capability set.
func (a Actor) HasPermission(capability string) bool {
	return slices.Contains(a.Permissions, capability)
}

// valid reports whether the actor carries enough context for
// tenant-scoped catalog operations.
func (a Actor) valid() bool {
	return a.UserID != "" && a.CompanyID != "" && a.Role != nil
}
