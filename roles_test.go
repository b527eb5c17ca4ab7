package auth_test

import (
	"testing"

	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestUserRoleIsValid(t *testing.T) {
	tests := []struct {
		role  auth.UserRole
		valid bool
	}{
		{auth.RoleAdmin, true},
		{auth.RoleUser, true},
		{auth.UserRole(""), false},
		{auth.UserRole("superadmin"), false},
		{auth.UserRole("Admin"), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.valid, tt.role.IsValid(), "role %q", tt.role)
	}
}

func TestUserRoleIsAdmin(t *testing.T) {
	assert.True(t, auth.RoleAdmin.IsAdmin())
	assert.False(t, auth.RoleUser.IsAdmin())
	assert.False(t, auth.UserRole("admin ").IsAdmin())
}

func TestParseRole(t *testing.T) {
	role, ok := auth.ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleAdmin, role)

	role, ok = auth.ParseRole("user")
	assert.True(t, ok)
	assert.Equal(t, auth.RoleUser, role)

	_, ok = auth.ParseRole("owner")
	assert.False(t, ok)

	_, ok = auth.ParseRole("")
	assert.False(t, ok)
}

func TestGetAllRoles(t *testing.T) {
	roles := auth.GetAllRoles()
	assert.Len(t, roles, 2)
	assert.Contains(t, roles, auth.RoleAdmin)
	assert.Contains(t, roles, auth.RoleUser)
}
