package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AuthClaims represents the structured claim set carried by an issued token.
type AuthClaims interface {
	UserID() int64
	Email() string
	Name() string
	Role() UserRole
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims. Exactly four
// identity claims are embedded (uid, email, name, role); the credential
// secret never travels in a token.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       int64    `json:"uid,omitempty"`
	UserEmail string   `json:"email,omitempty"`
	UserName  string   `json:"name,omitempty"`
	UserRole  UserRole `json:"role,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// UserID returns the user ID
func (c *JWTClaims) UserID() int64 {
	return c.UID
}

// Email returns the email claim
func (c *JWTClaims) Email() string {
	return c.UserEmail
}

// Name returns the display name claim
func (c *JWTClaims) Name() string {
	return c.UserName
}

// Role returns the role claim
func (c *JWTClaims) Role() UserRole {
	return c.UserRole
}

// HasRole checks if the claims carry the given role
func (c *JWTClaims) HasRole(role string) bool {
	return string(c.UserRole) == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// Complete reports whether all four required identity claims are present. A
// token that verifies but fails this check is treated as malformed, not
// expired.
func (c *JWTClaims) Complete() bool {
	return c.UID != 0 &&
		c.UserEmail != "" &&
		c.UserName != "" &&
		c.UserRole.IsValid()
}

// Identity projects the claims into the core Identity contract.
func (c *JWTClaims) Identity() Identity {
	return authIdentity{
		id:    c.UID,
		email: c.UserEmail,
		name:  c.UserName,
		role:  c.UserRole,
	}
}

func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}
