package entity

import "time"

// User is the acting principal. Every user carries exactly one role;
// the role in turn determines the user's tenant (CompanyID) and
// category (ParentID) for all catalog operations.
//
// Passwords are stored as bcrypt hashes in Password.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	CompanyID *string
	RoleID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
