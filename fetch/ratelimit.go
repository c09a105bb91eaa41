package fetch

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound requests to with_rate_limit's configured
// rate. A nil *RateLimiter (the default, unlimited) is always a no-op.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a token-bucket limiter allowing requestsPerSecond
// sustained with a burst of the same size, or an unlimited RateLimiter if
// requestsPerSecond is <= 0.
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	if requestsPerSecond <= 0 {
		return &RateLimiter{}
	}
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}
}

// Wait blocks until a token is available, or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
