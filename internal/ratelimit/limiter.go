package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision is the outcome of a Take call.
type Decision struct {
	Allowed    bool
	Count      int64
	Limit      int
	RetryAfter time.Duration
}

// Limiter counts hits per key within a fixed window.
type Limiter interface {
	Take(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window counter backed by INCR and EXPIRE NX in one MULTI block.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a limiter allowing limit hits per window.
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

// Take records a hit for key and reports whether it is within the limit.
func (l *RedisLimiter) Take(ctx context.Context, key string) (Decision, error) {
	redisKey := l.prefix + ":" + key

	// INCR and EXPIRE NX commit together: a live key always carries a TTL
	var incr *redis.IntCmd
	if _, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireNX(ctx, redisKey, l.window)
		return nil
	}); err != nil {
		return Decision{}, err
	}
	count := incr.Val()

	decision := Decision{Allowed: count <= int64(l.limit), Count: count, Limit: l.limit}
	if !decision.Allowed {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err == nil && ttl > 0 {
			decision.RetryAfter = ttl
		} else {
			decision.RetryAfter = l.window
		}
	}
	return decision, nil
}
