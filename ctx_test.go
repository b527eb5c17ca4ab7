package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-router"
	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestIdentityContextRoundTrip(t *testing.T) {
	identity := testIdentity{id: 42, email: "person@example.com", name: "Person", role: auth.RoleUser}

	ctx := auth.WithIdentityContext(context.Background(), identity)

	got, ok := auth.IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), got.ID())

	t.Run("missing identity", func(t *testing.T) {
		_, ok := auth.IdentityFromContext(context.Background())
		assert.False(t, ok)
	})
}

func TestClaimsContextRoundTrip(t *testing.T) {
	claims := fullClaims(time.Now())

	ctx := auth.WithClaimsContext(context.Background(), claims)

	got, ok := auth.GetClaims(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), got.UserID())

	t.Run("missing claims", func(t *testing.T) {
		_, ok := auth.GetClaims(context.Background())
		assert.False(t, ok)
	})
}

func TestGetRouterClaims(t *testing.T) {
	t.Run("claims under default key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = fullClaims(time.Now())

		claims, ok := auth.GetRouterClaims(ctx, "")
		assert.True(t, ok)
		assert.Equal(t, int64(42), claims.UserID())
	})

	t.Run("claims under custom key", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["custom-claims"] = fullClaims(time.Now())

		claims, ok := auth.GetRouterClaims(ctx, "custom-claims")
		assert.True(t, ok)
		assert.Equal(t, "person@example.com", claims.Email())
	})

	t.Run("nothing stored", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, ok := auth.GetRouterClaims(ctx, "")
		assert.False(t, ok)
	})

	t.Run("wrong type stored", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = "not-a-claims-object"

		_, ok := auth.GetRouterClaims(ctx, "")
		assert.False(t, ok)
	})
}

func TestRouterIdentity(t *testing.T) {
	t.Run("resolves identity from stored claims", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.LocalsMock["user"] = fullClaims(time.Now())

		identity, err := auth.RouterIdentity(ctx, "user")
		assert.NoError(t, err)
		assert.Equal(t, int64(42), identity.ID())
		assert.Equal(t, auth.RoleUser, identity.Role())
	})

	t.Run("unauthenticated when nothing stored", func(t *testing.T) {
		ctx := router.NewMockContext()

		_, err := auth.RouterIdentity(ctx, "user")
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}
