package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Config describes a token bucket.
type Config struct {
	// RequestsPerSecond is the sustained rate. 0 disables limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gte=0" yaml:"requests_per_second"`

	// Burst is the bucket capacity. Defaults to max(1, RequestsPerSecond).
	Burst int `mapstructure:"burst" validate:"gte=0" yaml:"burst"`
}

// RateLimiter throttles outbound calls using the token bucket algorithm.
//
// It wraps golang.org/x/time/rate:
//  1. Tokens are added to the bucket at RequestsPerSecond
//  2. Each call consumes one token
//  3. Wait blocks until a token is available (or ctx is done); Allow does not
//
// All methods are safe for concurrent use. A nil *RateLimiter never limits.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter from config.
//
// A zero rate yields an unlimited limiter, so callers can always Wait without
// checking whether throttling is configured.
func New(config Config) *RateLimiter {
	if config.RequestsPerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}

	burst := config.Burst
	if burst <= 0 {
		burst = max(1, int(config.RequestsPerSecond))
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst),
	}
}

// Unlimited reports whether the limiter lets every call through.
func (r *RateLimiter) Unlimited() bool {
	return r == nil || r.limiter.Limit() == rate.Inf
}

// Allow consumes a token if one is available, without waiting.
func (r *RateLimiter) Allow() bool {
	if r == nil {
		return true
	}
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is cancelled.
//
// Returns the context error if ctx ends first, or an error when the wait
// would exceed ctx's deadline.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return ctx.Err()
	}
	return r.limiter.Wait(ctx)
}

// Tokens returns the tokens currently in the bucket. Monitoring only.
func (r *RateLimiter) Tokens() float64 {
	if r == nil {
		return 0
	}
	return r.limiter.Tokens()
}
