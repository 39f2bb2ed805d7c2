package papersources

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by all requests to one upstream API.
// It is safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing ratePerSecond sustained requests
// with bursts of up to burst. NCBI allows 3 req/s without an API key and 10 with one.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// Wait blocks until a request is allowed or ctx is done. When the next token
// would only arrive after ctx's deadline it fails at once with an error
// wrapping context.DeadlineExceeded, as if the deadline had already passed.
func (r *RateLimiter) Wait(ctx context.Context) error {
	err := r.limiter.Wait(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}
