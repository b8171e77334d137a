// Package ratelimit throttles outgoing JSON-RPC requests to a node.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter. A nil *Limiter never blocks.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute calls per minute.
// Zero or negative returns nil, meaning unlimited.
func New(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}

	rps := float64(requestsPerMinute) / 60.0
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Wait blocks until a token is available or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a request may be sent now without waiting.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}

// SetLimit updates the rate at runtime.
func (l *Limiter) SetLimit(requestsPerMinute int) {
	if l == nil || requestsPerMinute <= 0 {
		return
	}
	l.limiter.SetLimit(rate.Limit(float64(requestsPerMinute) / 60.0))
}
