package auth_test

import (
	"testing"

	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	admin := testIdentity{id: 1, email: "admin@example.com", role: auth.RoleAdmin}
	user := testIdentity{id: 2, email: "user@example.com", role: auth.RoleUser}

	tests := []struct {
		name     string
		identity auth.Identity
		required auth.UserRole
		wantErr  error
	}{
		{"nil identity", nil, auth.RoleAdmin, auth.ErrUnauthenticated},
		{"nil identity no role", nil, "", auth.ErrUnauthenticated},
		{"empty role admits admin", admin, "", nil},
		{"empty role admits user", user, "", nil},
		{"admin passes admin gate", admin, auth.RoleAdmin, nil},
		{"user fails admin gate", user, auth.RoleAdmin, auth.ErrForbidden},
		{"user passes user gate", user, auth.RoleUser, nil},
		{"admin fails user gate", admin, auth.RoleUser, auth.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authorize(tt.identity, tt.required)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, auth.RequireAdmin(testIdentity{id: 1, role: auth.RoleAdmin}))
	assert.ErrorIs(t, auth.RequireAdmin(testIdentity{id: 2, role: auth.RoleUser}), auth.ErrForbidden)
	assert.ErrorIs(t, auth.RequireAdmin(nil), auth.ErrUnauthenticated)
}

func TestCanReadUser(t *testing.T) {
	admin := testIdentity{id: 1, role: auth.RoleAdmin}
	user := testIdentity{id: 7, role: auth.RoleUser}

	t.Run("admin reads anyone", func(t *testing.T) {
		assert.NoError(t, auth.CanReadUser(admin, 7))
		assert.NoError(t, auth.CanReadUser(admin, 1))
	})

	t.Run("user reads own record", func(t *testing.T) {
		assert.NoError(t, auth.CanReadUser(user, 7))
	})

	t.Run("user cannot read others", func(t *testing.T) {
		assert.ErrorIs(t, auth.CanReadUser(user, 1), auth.ErrForbidden)
		assert.ErrorIs(t, auth.CanReadUser(user, 8), auth.ErrForbidden)
	})

	t.Run("nil identity", func(t *testing.T) {
		assert.ErrorIs(t, auth.CanReadUser(nil, 7), auth.ErrUnauthenticated)
	})
}
