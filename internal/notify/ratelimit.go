package notify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited drops notifications beyond a steady rate so that a burst of
// snapshots cannot flood the user.
type RateLimited struct {
	Dispatcher
	limiter *rate.Limiter
}

// NewRateLimited allows one notification per every, with bursts up to burst.
// A non-positive every disables limiting.
func NewRateLimited(d Dispatcher, every time.Duration, burst int) *RateLimited {
	limit := rate.Inf
	if every > 0 {
		limit = rate.Every(every)
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Dispatcher: d, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Schedule(ctx context.Context, c Content) error {
	if !r.limiter.Allow() {
		return ErrThrottled
	}
	return r.Dispatcher.Schedule(ctx, c)
}
