package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrScript bumps the counter and starts the window on first touch, then
// reports both the new count and the window's remaining TTL in one round
// trip. Keeping it server-side makes the count-and-expire pair atomic.
var incrScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// decrScript refunds one request without ever letting the counter go
// negative or touching the window TTL.
var decrScript = redis.NewScript(`
local count = redis.call("GET", KEYS[1])
if not count or tonumber(count) <= 0 then
  return 0
end
return redis.call("DECR", KEYS[1])
`)

// RedisStore keeps counters in Redis so multiple instances share one budget
// per client key. Window expiry rides on key TTLs.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps an existing client. Keys are namespaced with prefix,
// defaulting to "ratelimit".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	res, err := incrScript.Run(ctx, s.client, []string{s.key(key)}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, err
	}

	vals, ok := res.([]any)
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("unexpected script reply: %v", res)
	}

	count, ok := vals[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected count reply: %v", vals[0])
	}

	ttlMillis, ok := vals[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected ttl reply: %v", vals[1])
	}

	ttl := window
	if ttlMillis > 0 {
		ttl = time.Duration(ttlMillis) * time.Millisecond
	}

	return int(count), ttl, nil
}

func (s *RedisStore) Decr(ctx context.Context, key string) error {
	return decrScript.Run(ctx, s.client, []string{s.key(key)}).Err()
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
