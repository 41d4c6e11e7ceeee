package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter is a sliding-window counter over a Redis sorted set, configured for
// one guarded operation. Every attempt is recorded as a member scored by its
// timestamp; members older than the window are pruned before counting. It
// caps checkout attempts per Telegram user.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Window time.Duration
	Max    int
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Allow records one attempt under key and reports whether it fits the window.
// A nil client or non-positive limit disables the limiter entirely.
func (l Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	resetAt := now.Add(l.Window)
	if l.Client == nil || l.Max <= 0 || l.Window <= 0 {
		return Decision{Allowed: true, Remaining: l.Max, ResetAt: resetAt}, nil
	}

	bucket := l.Prefix + ":" + key
	cutoff := strconv.FormatInt(now.Add(-l.Window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, bucket, "-inf", cutoff)
	pipe.ZAdd(ctx, bucket, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	count := pipe.ZCard(ctx, bucket)
	// slack past the window so a bucket outlives its own pruning horizon
	pipe.Expire(ctx, bucket, l.Window+time.Second)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{ResetAt: resetAt}, err
	}

	used := int(count.Val())
	d := Decision{Allowed: used <= l.Max, ResetAt: resetAt}
	if d.Remaining = l.Max - used; d.Remaining < 0 {
		d.Remaining = 0
	}
	return d, nil
}
