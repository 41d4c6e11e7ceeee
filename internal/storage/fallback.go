package storage

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/obs"
)

// Fallback composes a primary (remote) and secondary (local) backend with a
// deterministic precedence policy: reads try the primary first and fall back
// on any failure or miss; writes go to the primary best-effort and always to
// the secondary. Backend failures are logged and swallowed, never surfaced —
// persistence is a best-effort mirror, not a source of truth.
type Fallback struct {
	Primary   Port
	Secondary Port
	Logger    zerolog.Logger
}

// Load returns the first value found, or (nil, nil) when both backends are
// empty or failing.
func (f Fallback) Load(ctx context.Context, key string) ([]byte, error) {
	if f.Primary != nil {
		data, err := f.Primary.Load(ctx, key)
		if err == nil && data != nil {
			return data, nil
		}
		if err != nil {
			f.Logger.Warn().Err(err).Str("key", key).Msg("primary storage load failed, falling back")
			obs.ObserveStorageFallback()
		}
	}
	if f.Secondary == nil {
		return nil, nil
	}
	data, err := f.Secondary.Load(ctx, key)
	if err != nil {
		f.Logger.Warn().Err(err).Str("key", key).Msg("secondary storage load failed")
		return nil, nil
	}
	return data, nil
}

// Save mirrors the value into both backends. Always returns nil.
func (f Fallback) Save(ctx context.Context, key string, value []byte) error {
	failed := 0
	if f.Primary != nil {
		if err := f.Primary.Save(ctx, key, value); err != nil {
			f.Logger.Warn().Err(err).Str("key", key).Msg("primary storage save failed")
			failed++
		}
	}
	if f.Secondary != nil {
		if err := f.Secondary.Save(ctx, key, value); err != nil {
			f.Logger.Warn().Err(err).Str("key", key).Msg("secondary storage save failed")
			failed++
		}
	}
	if failed == f.backendCount() && failed > 0 {
		obs.ObservePersistError()
	}
	return nil
}

// Remove deletes the key from both backends. Always returns nil.
func (f Fallback) Remove(ctx context.Context, key string) error {
	if f.Primary != nil {
		if err := f.Primary.Remove(ctx, key); err != nil {
			f.Logger.Warn().Err(err).Str("key", key).Msg("primary storage remove failed")
		}
	}
	if f.Secondary != nil {
		if err := f.Secondary.Remove(ctx, key); err != nil {
			f.Logger.Warn().Err(err).Str("key", key).Msg("secondary storage remove failed")
		}
	}
	return nil
}

func (f Fallback) backendCount() int {
	n := 0
	if f.Primary != nil {
		n++
	}
	if f.Secondary != nil {
		n++
	}
	return n
}
