package identity

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByEmailAndRole looks a user up by email, filtered by role.
	GetByEmailAndRole(ctx context.Context, email, role string) (*User, error)
	// FirstByRole returns the earliest-created user with the given role.
	FirstByRole(ctx context.Context, role string) (*User, error)
	ListByRole(ctx context.Context, role string, limit, offset int) ([]*User, int, error)
}
