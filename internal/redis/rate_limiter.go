package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
)

// RequestRateLimiter implements fixed-window rate limiting for REST requests,
// keyed by caller identity (client IP). The window counter lives in Redis so
// the limit holds across instances.
type RequestRateLimiter struct {
	rdb    *goredis.Client
	clock  clockwork.Clock
	limit  int
	window time.Duration
}

// NewRequestRateLimiter creates a limiter allowing limit requests per window.
func NewRequestRateLimiter(rdb *goredis.Client, clock clockwork.Clock, limit int, window time.Duration) *RequestRateLimiter {
	return &RequestRateLimiter{
		rdb:    rdb,
		clock:  clock,
		limit:  limit,
		window: window,
	}
}

// Allow reports whether a request from the given key is within the limit.
// The Redis round trip is one pipelined INCR + EXPIRE NX.
func (l *RequestRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	bucket := l.clock.Now().Unix() / int64(l.window.Seconds())
	redisKey := fmt.Sprintf("rate_limit:api:%s:%d", key, bucket)

	pipe := l.rdb.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return incr.Val() <= int64(l.limit), nil
}

// Limit returns the configured request limit per window.
func (l *RequestRateLimiter) Limit() int {
	return l.limit
}

// Window returns the configured window duration.
func (l *RequestRateLimiter) Window() time.Duration {
	return l.window
}
