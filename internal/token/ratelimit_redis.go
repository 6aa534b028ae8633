package token

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-event-tickets/internal/redisx"
)

// RedisRateLimiter is a fixed-window counter on a shared store: INCR plus a
// TTL set on the first request of the window. Atomic increments keep the
// quota a single budget no matter how many server instances share the store.
type RedisRateLimiter struct {
	Client *redis.Client
	Window time.Duration
	Limit  int
}

func NewRedisRateLimiter(client *redis.Client, window time.Duration, limit int) *RedisRateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &RedisRateLimiter{Client: client, Window: window, Limit: limit}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) error {
	rkey := fmt.Sprintf(redisx.KeyRateLimit, key)

	n, err := l.Client.Incr(ctx, rkey).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		if err := l.Client.Expire(ctx, rkey, l.Window).Err(); err != nil {
			return err
		}
	}
	if n <= int64(l.Limit) {
		return nil
	}

	ttl, err := l.Client.TTL(ctx, rkey).Result()
	if err != nil || ttl < 0 {
		// key without expiry (expire lost after incr): re-arm and reject
		_ = l.Client.Expire(ctx, rkey, l.Window).Err()
		ttl = l.Window
	}
	retry := int(math.Ceil(ttl.Seconds()))
	if retry < 1 {
		retry = 1
	}
	return &RateLimitError{RetryAfter: retry}
}
