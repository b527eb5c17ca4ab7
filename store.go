package auth

import "context"

// Users is the store collaborator the core depends on. Implementations must
// enforce email uniqueness across every record — soft-deleted included, so a
// released address is not immediately reusable — and must perform soft
// deletion (marking inactive) rather than physical removal.
//
// Lookups only surface active records; a soft-deleted user is gone as far as
// callers are concerned, except for the uniqueness reservation.
type Users interface {
	FindActiveByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	ListActive(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, data UserData) (*User, error)
	Update(ctx context.Context, id int64, data UserUpdate) (*User, error)
	SoftDelete(ctx context.Context, id int64) error
}
