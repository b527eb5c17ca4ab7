package auth_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	auth "github.com/spsgroup/go-auth"
	"github.com/spsgroup/go-auth/middleware/jwtware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// capturedJSON marshals whatever body the handler wrote so assertions can
// look inside without depending on response struct types.
func capturedJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	return string(raw)
}

func TestWriteError(t *testing.T) {
	t.Run("rich error keeps its status and text code", func(t *testing.T) {
		ctx := router.NewMockContext()

		var body string
		ctx.On("JSON", http.StatusNotFound, mock.Anything).Run(func(args mock.Arguments) {
			body = capturedJSON(t, args.Get(1))
		}).Return(nil)

		err := auth.WriteError(ctx, nil, auth.ErrUserNotFound)
		assert.NoError(t, err)
		assert.Contains(t, body, "USER_NOT_FOUND")
		assert.Contains(t, body, "user not found")
		ctx.AssertExpectations(t)
	})

	t.Run("unknown errors become opaque 500s", func(t *testing.T) {
		ctx := router.NewMockContext()

		var body string
		ctx.On("JSON", http.StatusInternalServerError, mock.Anything).Run(func(args mock.Arguments) {
			body = capturedJSON(t, args.Get(1))
		}).Return(nil)

		err := auth.WriteError(ctx, nil, fmt.Errorf("pq: connection refused"))
		assert.NoError(t, err)
		assert.Contains(t, body, "An unexpected server error occurred")
		assert.NotContains(t, body, "connection refused", "causes never reach clients")
		ctx.AssertExpectations(t)
	})

	t.Run("category decides status when no code set", func(t *testing.T) {
		ctx := router.NewMockContext()
		ctx.On("JSON", http.StatusConflict, mock.Anything).Return(nil)

		err := auth.WriteError(ctx, nil, errors.New("email taken", errors.CategoryConflict))
		assert.NoError(t, err)
		ctx.AssertExpectations(t)
	})

	t.Run("validation metadata is echoed as fields", func(t *testing.T) {
		ctx := router.NewMockContext()

		var body string
		ctx.On("JSON", http.StatusBadRequest, mock.Anything).Run(func(args mock.Arguments) {
			body = capturedJSON(t, args.Get(1))
		}).Return(nil)

		richErr := errors.New("invalid request payload", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"email": "must be a valid email address"})

		err := auth.WriteError(ctx, nil, richErr)
		assert.NoError(t, err)
		assert.Contains(t, body, "must be a valid email address")
		ctx.AssertExpectations(t)
	})
}

func TestErrorBoundaryPassesCleanRequests(t *testing.T) {
	ctx := router.NewMockContext()

	mw := auth.ErrorBoundary(nil)
	err := mw(func(c router.Context) error { return nil })(ctx)

	assert.NoError(t, err)
	assert.True(t, ctx.NextCalled)
}

func TestMakeAPIAuthErrorHandler(t *testing.T) {
	store := seededStore(t)
	auther := auth.NewAuthenticator(auth.NewUserProvider(store), testConfig{})

	httpAuth, err := auth.NewHTTPAuth(auther, testConfig{})
	assert.NoError(t, err)

	handler := httpAuth.MakeAPIAuthErrorHandler()

	t.Run("expired tokens map to the expiry sentinel", func(t *testing.T) {
		ctx := router.NewMockContext()
		err := handler(ctx, fmt.Errorf("jwt check: token is expired"))
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("missing token maps to malformed", func(t *testing.T) {
		ctx := router.NewMockContext()
		err := handler(ctx, jwtware.ErrJWTMissingOrMalformed)
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("role rejection maps to forbidden", func(t *testing.T) {
		ctx := router.NewMockContext()
		err := handler(ctx, fmt.Errorf("%w: required role %q", jwtware.ErrInsufficientRole, "admin"))
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("rich errors pass through unchanged", func(t *testing.T) {
		ctx := router.NewMockContext()
		err := handler(ctx, auth.ErrUnauthenticated)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}

func TestHTTPAuthTokenDuration(t *testing.T) {
	store := seededStore(t)
	auther := auth.NewAuthenticator(auth.NewUserProvider(store), testConfig{})

	httpAuth, err := auth.NewHTTPAuth(auther, testConfig{})
	assert.NoError(t, err)
	assert.Equal(t, "8h0m0s", httpAuth.GetTokenDuration().String())
}
