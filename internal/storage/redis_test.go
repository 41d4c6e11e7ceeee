package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/minishop/backend-minishop/internal/storage"
)

func newRedisStore(t *testing.T) (storage.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return storage.RedisStore{Client: client, TTL: time.Hour}, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "cart:42", []byte(`{"items":[]}`)))

	data, err := s.Load(ctx, "cart:42")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"items":[]}`), data)
}

func TestRedisStoreMissReturnsNil(t *testing.T) {
	s, _ := newRedisStore(t)

	data, err := s.Load(context.Background(), "cart:absent")
	require.NoError(t, err)
	require.Nil(t, data)
}

func TestRedisStoreRemove(t *testing.T) {
	s, _ := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "cart:42", []byte(`x`)))
	require.NoError(t, s.Remove(ctx, "cart:42"))

	data, err := s.Load(ctx, "cart:42")
	require.NoError(t, err)
	require.Nil(t, data)

	// removing again is a no-op
	require.NoError(t, s.Remove(ctx, "cart:42"))
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	s, mr := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "cart:42", []byte(`x`)))
	mr.FastForward(2 * time.Hour)

	data, err := s.Load(ctx, "cart:42")
	require.NoError(t, err)
	require.Nil(t, data)
}
