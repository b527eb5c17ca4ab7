// Package ratelimit implements fixed-window request throttling for go-router.
// Each client key owns a counter inside the current window; once the counter
// passes the rule's ceiling further requests are rejected until the window
// rolls over. Rules with SkipSuccessful refund requests that complete without
// error, so only failures consume budget.
package ratelimit

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Rule describes one throttling policy.
type Rule struct {
	// Max is the number of counted requests allowed per window.
	Max int

	// Window is the fixed interval after which counters reset.
	Window time.Duration

	// SkipSuccessful refunds requests whose handler returned no error.
	SkipSuccessful bool
}

// Decision is the outcome of admitting one request.
type Decision struct {
	Allowed    bool
	Key        string
	Count      int
	Remaining  int
	RetryAfter time.Duration
}

// Store tracks per-key counters. Implementations must keep Incr atomic: two
// concurrent calls for the same key may never observe the same count.
type Store interface {
	// Incr adds one to the key's counter, starting a new window when none is
	// active, and reports the updated count plus time left in the window.
	Incr(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)

	// Decr takes one back, never dropping below zero.
	Decr(ctx context.Context, key string) error

	// Reset clears the key's counter and window.
	Reset(ctx context.Context, key string) error
}

// Limiter applies a Rule against a Store.
type Limiter struct {
	store Store
	rule  Rule
}

// NewLimiter builds a limiter. Panics on a rule that could never admit a
// request, mirroring construction-time misconfiguration failures.
func NewLimiter(store Store, rule Rule) *Limiter {
	if store == nil {
		panic("ratelimit: nil store")
	}
	if rule.Max <= 0 || rule.Window <= 0 {
		panic("ratelimit: rule needs a positive Max and Window")
	}
	return &Limiter{store: store, rule: rule}
}

// Rule returns the policy this limiter enforces.
func (l *Limiter) Rule() Rule {
	return l.rule
}

// Admit counts the request against the key and reports whether it may
// proceed. The count happens up front; callers refund afterwards when the
// rule skips successful requests.
func (l *Limiter) Admit(ctx context.Context, key string) (Decision, error) {
	count, ttl, err := l.store.Incr(ctx, key, l.rule.Window)
	if err != nil {
		return Decision{}, errors.Wrap(err, errors.CategoryOperation, "rate limit store failure").
			WithMetadata(map[string]any{"key": key})
	}

	remaining := l.rule.Max - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:    count <= l.rule.Max,
		Key:        key,
		Count:      count,
		Remaining:  remaining,
		RetryAfter: ttl,
	}, nil
}

// Refund gives back one previously counted request.
func (l *Limiter) Refund(ctx context.Context, key string) error {
	if err := l.store.Decr(ctx, key); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "rate limit refund failure").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

// Reset clears the key's budget entirely.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	return l.store.Reset(ctx, key)
}
