package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSpacesAcquisitions(t *testing.T) {
	limiter := New(2.0)

	start := time.Now()
	for range 3 {
		require.NoError(t, limiter.Acquire(context.Background()))
	}
	elapsed := time.Since(start)

	// 2 rps means 0.5s between calls: first free, then two waits.
	require.GreaterOrEqual(t, elapsed, 900*time.Millisecond)
}

func TestLimiterFirstCallNeverWaits(t *testing.T) {
	limiter := New(0.1)

	start := time.Now()
	require.NoError(t, limiter.Acquire(context.Background()))
	require.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterUnlimitedWhenRateNonPositive(t *testing.T) {
	for _, rps := range []float64{0, -1} {
		limiter := New(rps)

		start := time.Now()
		for range 5 {
			require.NoError(t, limiter.Acquire(context.Background()))
		}
		require.Less(t, time.Since(start), 100*time.Millisecond)
	}
}

func TestLimiterRespectsContextCancellation(t *testing.T) {
	limiter := New(0.5)
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	require.Error(t, err)
}
