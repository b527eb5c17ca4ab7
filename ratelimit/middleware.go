package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Config drives the router middleware.
type Config struct {
	// Filter skips the middleware when it returns true.
	Filter func(router.Context) bool

	// Name namespaces counter keys so multiple limiters on the same store
	// never collide. Defaults to "default".
	Name string

	// Limiter enforces the policy. Required.
	Limiter *Limiter

	// KeyGenerator derives the client key from the request. Defaults to
	// ClientKey.
	KeyGenerator func(router.Context) string

	// ErrorHandler receives the rejection error. Defaults to propagating it
	// so an outer boundary renders the response.
	ErrorHandler router.ErrorHandler

	// FailOpen admits requests when the store is unreachable instead of
	// rejecting them. Defaults to true: a broken Redis should not take the
	// whole API down with it.
	FailOpen *bool
}

// ClientKey identifies the caller: the first X-Forwarded-For hop when
// present, the peer address otherwise, and a fixed fallback when neither is
// known so unattributable traffic still shares one budget.
func ClientKey(ctx router.Context) string {
	if fwd := ctx.GetString("X-Forwarded-For", ""); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		if fwd = strings.TrimSpace(fwd); fwd != "" {
			return fwd
		}
	}

	if ip := ctx.IP(); ip != "" {
		return ip
	}

	return "unknown-ip"
}

// LimitExceededError builds the rejection error for a throttled request.
func LimitExceededError(d Decision) *errors.Error {
	return errors.New("Too many requests, please try again later.", errors.CategoryRateLimit).
		WithCode(http.StatusTooManyRequests).
		WithTextCode("RATE_LIMITED").
		WithMetadata(map[string]any{
			"retry_after_seconds": retryAfterSeconds(d),
		})
}

// New builds the throttling middleware. Every request is counted before the
// handler runs; when the limiter's rule skips successful requests, a request
// whose downstream chain returns no error is refunded afterwards.
func New(config ...Config) router.MiddlewareFunc {
	cfg := configDefaults(config...)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			key := cfg.Name + ":" + cfg.KeyGenerator(ctx)

			decision, err := cfg.Limiter.Admit(ctx.Context(), key)
			if err != nil {
				if *cfg.FailOpen {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			rule := cfg.Limiter.Rule()

			ctx.SetHeader("X-RateLimit-Limit", strconv.Itoa(rule.Max))
			ctx.SetHeader("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

			if !decision.Allowed {
				ctx.SetHeader("Retry-After", strconv.Itoa(retryAfterSeconds(decision)))
				return cfg.ErrorHandler(ctx, LimitExceededError(decision))
			}

			err = ctx.Next()

			if err == nil && rule.SkipSuccessful {
				// Refund failures are deliberately swallowed: an uncredited
				// success only makes the limiter slightly stricter.
				_ = cfg.Limiter.Refund(ctx.Context(), key)
			}

			return err
		}
	}
}

func configDefaults(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Limiter == nil {
		panic("ratelimit: middleware requires a Limiter")
	}

	if cfg.Name == "" {
		cfg.Name = "default"
	}

	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = ClientKey
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return err
		}
	}

	if cfg.FailOpen == nil {
		failOpen := true
		cfg.FailOpen = &failOpen
	}

	return cfg
}

func retryAfterSeconds(d Decision) int {
	secs := int(math.Ceil(d.RetryAfter.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}
