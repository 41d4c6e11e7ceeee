package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/ratelimit"
)

func newTestLimiter(t *testing.T, max int) ratelimit.Limiter {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return ratelimit.Limiter{Client: client, Prefix: "rl", Window: time.Minute, Max: max}
}

func TestLimiterAllowsWithinWindow(t *testing.T) {
	l := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := l.Allow(ctx, "user:1")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestLimiterIsolatesKeys(t *testing.T) {
	l := newTestLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
	}

	d, err := l.Allow(ctx, "user:2")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}

func TestLimiterZeroMaxAlwaysAllows(t *testing.T) {
	l := newTestLimiter(t, 0)

	d, err := l.Allow(context.Background(), "user:1")
	require.NoError(t, err)
	require.True(t, d.Allowed)
}
