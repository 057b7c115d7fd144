package entity

// Permission is an opaque named capability. Permissions are immutable
// reference data, not owned by any tenant; a permission is available to
// a role category when it is attached to the category's parent template
// role.
type Permission struct {
	ID   string
	Name string
	Slug string
}

// RolePermission is the role<->permission junction row. Rows are owned
// by the role and are only ever written through the reconciliation in
// the role catalog service, never edited in place.
type RolePermission struct {
	RoleID       string
	PermissionID string
}
