// Package ratelimit throttles outbound request cadence for the HTTP
// clients that share a single Limiter instance.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval of 1/rps between acquisitions.
// A single token of burst means the first Acquire never waits and every
// later one is spaced by the configured interval.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter for the given requests-per-second rate.
// rps <= 0 means unlimited.
func New(rps float64) *Limiter {
	if rps <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Acquire blocks until the rate limit allows another request or the
// context is cancelled.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
