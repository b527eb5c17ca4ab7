package auth

import (
	"time"

	"github.com/uptrace/bun"
)

// PrimaryAdminID is the seed administrator account. It can never be
// soft-deleted, regardless of who asks.
const PrimaryAdminID int64 = 1

// User is the user model. Email is unique across every record, active or
// soft-deleted, so a released address stays reserved.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	Name          string     `bun:"name,notnull" json:"name"`
	Email         string     `bun:"email,notnull,unique" json:"email"`
	Role          UserRole   `bun:"role,notnull" json:"role"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// Active reports whether the record has not been soft-deleted.
func (u *User) Active() bool {
	return u != nil && u.DeletedAt == nil
}

// Identity projects the record into the minimal authenticated principal.
func (u *User) Identity() Identity {
	return authIdentity{
		id:    u.ID,
		email: u.Email,
		name:  u.Name,
		role:  u.Role,
	}
}

// UserData carries the fields needed to create a user. Password arrives in
// clear text and is hashed by the store; it is never persisted as-is.
type UserData struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	Password string   `json:"password"`
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Name     *string   `json:"name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
	Password *string   `json:"password,omitempty"`
}

// Empty reports whether the update carries no changes at all.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.Password == nil
}
