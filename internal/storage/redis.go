package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists values in Redis with a TTL. It serves as the remote
// per-user backend, reachable wherever the service runs.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// Load fetches the value for key, returning (nil, nil) on a miss.
func (s RedisStore) Load(ctx context.Context, key string) ([]byte, error) {
	if s.Client == nil {
		return nil, errors.New("storage: redis client not configured")
	}
	data, err := s.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Save stores the value under key, refreshing the TTL.
func (s RedisStore) Save(ctx context.Context, key string, value []byte) error {
	if s.Client == nil {
		return errors.New("storage: redis client not configured")
	}
	return s.Client.Set(ctx, key, value, s.TTL).Err()
}

// Remove deletes the key. Removing an absent key is not an error.
func (s RedisStore) Remove(ctx context.Context, key string) error {
	if s.Client == nil {
		return errors.New("storage: redis client not configured")
	}
	return s.Client.Del(ctx, key).Err()
}
