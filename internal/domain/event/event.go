package event

import "context"

// Names of the role catalog domain events.
const (
	RoleCreated        = "role.created"
	RoleUpdated        = "role.updated"
	RoleDeleted        = "role.deleted"
	RolePermissionsSet = "role.permissions_set"
)

// Metadata carries before/after snapshots of the mutated aggregate.
// Pre is nil for creations, Post is nil for deletions.
type Metadata struct {
	Pre  any `json:"pre,omitempty"`
	Post any `json:"post,omitempty"`
}

// Event is one completed role catalog operation, addressed to the
// external audit sink.
type Event struct {
	Name     string   `json:"name"`
	Actor    string   `json:"actor"`
	RoleID   string   `json:"role_id"`
	Metadata Metadata `json:"metadata"`
}

// Publisher delivers domain events to an external sink. Delivery
// guarantees are the sink's responsibility; the role catalog treats
// publishing as fire-and-forget and never fails an operation on a
// publish error.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
