package auth_test

import (
	"testing"
	"time"

	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestTokenValidatorFunc(t *testing.T) {
	claims := fullClaims(time.Now())

	v := auth.TokenValidatorFunc(func(tokenString string) (auth.AuthClaims, error) {
		assert.Equal(t, "raw-token", tokenString)
		return claims, nil
	})

	got, err := v.Validate("raw-token")
	assert.NoError(t, err)
	assert.Equal(t, claims, got)

	t.Run("nil func", func(t *testing.T) {
		var nilFunc auth.TokenValidatorFunc
		_, err := nilFunc.Validate("raw-token")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}

func TestMultiTokenValidator(t *testing.T) {
	claims := fullClaims(time.Now())

	good := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return claims, nil
	})
	malformed := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return nil, auth.ErrTokenMalformed
	})
	expired := auth.TokenValidatorFunc(func(string) (auth.AuthClaims, error) {
		return nil, auth.ErrTokenExpired
	})

	t.Run("first success wins", func(t *testing.T) {
		v := auth.NewMultiTokenValidator(good, malformed)
		got, err := v.Validate("token")
		assert.NoError(t, err)
		assert.Equal(t, claims, got)
	})

	t.Run("malformed falls through to next", func(t *testing.T) {
		v := auth.NewMultiTokenValidator(malformed, good)
		got, err := v.Validate("token")
		assert.NoError(t, err)
		assert.Equal(t, claims, got)
	})

	t.Run("expired stops the chain", func(t *testing.T) {
		v := auth.NewMultiTokenValidator(expired, good)
		_, err := v.Validate("token")
		assert.ErrorIs(t, err, auth.ErrTokenExpired)
	})

	t.Run("all malformed returns last error", func(t *testing.T) {
		v := auth.NewMultiTokenValidator(malformed, malformed)
		_, err := v.Validate("token")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})

	t.Run("empty validator list", func(t *testing.T) {
		v := auth.NewMultiTokenValidator(nil, nil)
		_, err := v.Validate("token")
		assert.ErrorIs(t, err, auth.ErrTokenMalformed)
	})
}
