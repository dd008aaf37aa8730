package resolver

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter enforces a minimum delay between outbound requests. One
// limiter is shared by every request of a run, so it is also the site-wide
// backpressure when several queries resolve in parallel.
type RateLimiter struct {
	lim *rate.Limiter
}

// NewRateLimiter allows one request per delay. A non-positive delay
// disables limiting.
func NewRateLimiter(delay time.Duration) *RateLimiter {
	if delay <= 0 {
		return &RateLimiter{lim: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{lim: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next request may go out or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.lim.Wait(ctx)
}
