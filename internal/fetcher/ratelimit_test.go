package fetcher

import (
	"context"
	"testing"
	"time"

	"dmr/internal/structures"
	"dmr/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(minInterval, base, max time.Duration) *RateLimiter {
	conf := &structures.Config{
		Fetcher: structures.FetcherConfig{
			RateLimitDelay: minInterval,
			BackoffBase:    base,
			BackoffMax:     max,
		},
	}
	return NewRateLimiter(conf, &testutil.MockMetrics{})
}

func TestRateLimiter_FirstCallDoesNotBlock(t *testing.T) {
	rl := newTestLimiter(time.Second, time.Second, time.Minute)

	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRateLimiter_EnforcesMinInterval(t *testing.T) {
	rl := newTestLimiter(50*time.Millisecond, time.Second, time.Minute)

	require.NoError(t, rl.Wait(context.Background()))
	start := time.Now()
	require.NoError(t, rl.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiter_WaitHonorsCancellation(t *testing.T) {
	rl := newTestLimiter(time.Minute, time.Second, time.Minute)
	require.NoError(t, rl.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, rl.Wait(ctx), context.Canceled)
}

func TestRetryDelay_RetryAfterTakesPrecedence(t *testing.T) {
	rl := newTestLimiter(time.Second, time.Second, time.Minute)
	assert.Equal(t, 7*time.Second, rl.RetryDelay(0, 7*time.Second))
	assert.Equal(t, 7*time.Second, rl.RetryDelay(5, 7*time.Second))
}

func TestRetryDelay_ExponentialGrowth(t *testing.T) {
	rl := newTestLimiter(time.Second, 2*time.Second, time.Hour)
	// Deterministic jitter: always the lower bound d/2.
	rl.int63n = func(_ int64) int64 { return 0 }

	assert.Equal(t, time.Second, rl.RetryDelay(0, 0))    // 2s/2
	assert.Equal(t, 2*time.Second, rl.RetryDelay(1, 0))  // 4s/2
	assert.Equal(t, 4*time.Second, rl.RetryDelay(2, 0))  // 8s/2
	assert.Equal(t, 8*time.Second, rl.RetryDelay(3, 0))  // 16s/2
	assert.Equal(t, 16*time.Second, rl.RetryDelay(4, 0)) // 32s/2
}

func TestRetryDelay_CappedAtMax(t *testing.T) {
	rl := newTestLimiter(time.Second, 2*time.Second, 10*time.Second)
	rl.int63n = func(n int64) int64 { return n - 1 }

	// Far past the cap, including attempt counts beyond the shift guard.
	for _, attempt := range []int{10, 31, 32, 64} {
		d := rl.RetryDelay(attempt, 0)
		assert.GreaterOrEqual(t, d, 5*time.Second)
		assert.Less(t, d, 10*time.Second+time.Nanosecond)
	}
}

func TestRetryDelay_JitterWithinBounds(t *testing.T) {
	rl := newTestLimiter(time.Second, 4*time.Second, time.Hour)

	for i := 0; i < 100; i++ {
		d := rl.RetryDelay(1, 0) // full delay 8s
		assert.GreaterOrEqual(t, d, 4*time.Second)
		assert.Less(t, d, 8*time.Second)
	}
}

func TestSleep_ReturnsOnCancel(t *testing.T) {
	rl := newTestLimiter(time.Second, time.Second, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := rl.Sleep(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleep_ZeroDurationReturnsImmediately(t *testing.T) {
	rl := newTestLimiter(time.Second, time.Second, time.Minute)
	assert.NoError(t, rl.Sleep(context.Background(), 0))
}
