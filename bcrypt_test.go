package auth_test

import (
	"strings"
	"testing"

	auth "github.com/spsgroup/go-auth"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	hash, err := auth.HashPassword("1234")
	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "1234", hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))

	t.Run("empty password rejected", func(t *testing.T) {
		_, err := auth.HashPassword("")
		assert.ErrorIs(t, err, auth.ErrNoEmptyString)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		other, err := auth.HashPassword("1234")
		assert.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	assert.NoError(t, err)

	assert.NoError(t, auth.ComparePasswordAndHash("correct horse", hash))
	assert.ErrorIs(t, auth.ComparePasswordAndHash("wrong horse", hash), auth.ErrMismatchedHashAndPassword)

	t.Run("garbage hash", func(t *testing.T) {
		err := auth.ComparePasswordAndHash("whatever", "not-a-hash")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrMismatchedHashAndPassword)
	})
}
