package fetcher

import (
	"context"
	"math/rand"
	"time"

	"dmr/internal/providers"
	"dmr/internal/structures"
)

// RateLimiter paces outgoing calls and computes retry delays. It is the
// only component in the pipeline that deliberately blocks.
type RateLimiter struct {
	minInterval time.Duration
	base        time.Duration
	max         time.Duration

	lastCall time.Time

	now     func() time.Time
	int63n  func(int64) int64
	metrics providers.MetricsProviderInterface
}

func NewRateLimiter(conf *structures.Config, metrics providers.MetricsProviderInterface) *RateLimiter {
	return &RateLimiter{
		minInterval: conf.Fetcher.RateLimitDelay,
		base:        conf.Fetcher.BackoffBase,
		max:         conf.Fetcher.BackoffMax,
		now:         time.Now,
		int63n:      rand.Int63n,
		metrics:     metrics,
	}
}

// Wait enforces the minimum inter-call delay, success path included.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if !rl.lastCall.IsZero() {
		if elapsed := rl.now().Sub(rl.lastCall); elapsed < rl.minInterval {
			if err := rl.Sleep(ctx, rl.minInterval-elapsed); err != nil {
				return err
			}
		}
	}
	rl.lastCall = rl.now()
	return nil
}

// RetryDelay computes the backoff before retrying a failed attempt. An
// explicit retry-after hint from the service takes precedence; otherwise
// the delay is min(base << attempt, max) with jitter in [d/2, d).
func (rl *RateLimiter) RetryDelay(attempt int, retryAfter time.Duration) time.Duration {
	if retryAfter > 0 {
		return retryAfter
	}

	d := rl.max
	if attempt < 32 {
		d = min(rl.base<<uint(attempt), rl.max)
	}
	if d/2 <= 0 {
		return d
	}
	return d/2 + time.Duration(rl.int63n(int64(d/2)))
}

// Sleep blocks for d or until the context is cancelled.
func (rl *RateLimiter) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
