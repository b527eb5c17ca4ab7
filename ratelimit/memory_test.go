package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/spsgroup/go-auth/ratelimit"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreIncr(t *testing.T) {
	ctx := context.Background()

	current := time.Now()
	store := ratelimit.NewMemoryStore().WithClock(func() time.Time { return current })

	count, ttl, err := store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, time.Minute, ttl)

	count, _, err = store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	t.Run("ttl shrinks as the window ages", func(t *testing.T) {
		current = current.Add(40 * time.Second)

		count, ttl, err := store.Incr(ctx, "k", time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, 3, count)
		assert.Equal(t, 20*time.Second, ttl)
	})

	t.Run("expired window starts over", func(t *testing.T) {
		current = current.Add(2 * time.Minute)

		count, ttl, err := store.Incr(ctx, "k", time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Equal(t, time.Minute, ttl)
	})
}

func TestMemoryStoreDecr(t *testing.T) {
	ctx := context.Background()

	current := time.Now()
	store := ratelimit.NewMemoryStore().WithClock(func() time.Time { return current })

	_, _, err := store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	_, _, err = store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)

	assert.NoError(t, store.Decr(ctx, "k"))

	count, _, err := store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	t.Run("never drops below zero", func(t *testing.T) {
		assert.NoError(t, store.Decr(ctx, "fresh"))
		assert.NoError(t, store.Decr(ctx, "fresh"))

		count, _, err := store.Incr(ctx, "fresh", time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("expired entries are left alone", func(t *testing.T) {
		current = current.Add(5 * time.Minute)

		assert.NoError(t, store.Decr(ctx, "k"))

		count, _, err := store.Incr(ctx, "k", time.Minute)
		assert.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestMemoryStoreReset(t *testing.T) {
	ctx := context.Background()
	store := ratelimit.NewMemoryStore()

	_, _, err := store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	assert.NoError(t, store.Reset(ctx, "k"))
	assert.Equal(t, 0, store.Len())

	count, _, err := store.Incr(ctx, "k", time.Minute)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}
