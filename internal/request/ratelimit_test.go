package request

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterAllowsBurstImmediately(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 2)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://example.com/a"))
	require.NoError(t, l.Wait(ctx, "https://example.com/b"))
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestLimiterIsPerHost(t *testing.T) {
	t.Parallel()

	l := NewLimiter(1, 1)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://one.example.com/"))
	require.NoError(t, l.Wait(ctx, "https://two.example.com/"))
	require.NoError(t, l.Wait(ctx, "https://three.example.com/"))
	require.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestLimiterHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0.1, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Wait(ctx, "https://example.com/"))
	require.Error(t, l.Wait(ctx, "https://example.com/"))
}

func TestLimiterDisabledWithZeroRate(t *testing.T) {
	t.Parallel()

	l := NewLimiter(0, 0)
	ctx := context.Background()
	for range 10 {
		require.NoError(t, l.Wait(ctx, "https://example.com/"))
	}
}
