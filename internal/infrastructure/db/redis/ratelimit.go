package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter counts hits per key in windows that start on the first
// hit. Key format: ratelimit:<key>
type FixedWindowLimiter struct {
	client redis.UniversalClient
}

func NewFixedWindowLimiter(client redis.UniversalClient) *FixedWindowLimiter {
	return &FixedWindowLimiter{client: client}
}

// Allow counts one hit and reports whether the count is still within limit,
// together with the time left before the window resets.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	k := "ratelimit:" + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}
	if n == 1 {
		if err := l.client.PExpire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
	}

	ttl, err := l.client.PTTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit ttl: %w", err)
	}
	if ttl < 0 {
		// counter survived without an expiry; start a fresh window
		if err := l.client.PExpire(ctx, k, window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit expire: %w", err)
		}
		ttl = window
	}

	return n <= int64(limit), ttl, nil
}
