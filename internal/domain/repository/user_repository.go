package repository

import (
	"context"

	"github.com/rolecatalog/rbac-engine/internal/domain/entity"
)

// UserRepository defines the interface for principal lookups.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// RoleOf returns the user's own role, including soft-deleted and
	// inactive ones so that the caller can decide how to treat them.
	RoleOf(ctx context.Context, userID string) (*entity.Role, error)
}
