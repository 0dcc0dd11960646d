package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "adboard:ratelimit:"
	window         = time.Minute
)

// Redis is a fixed-window counter shared by all instances.
// A key may make RequestsPerMinute + Burst requests per window.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
}

// NewRedis creates a Redis backed limiter.
func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{client: client, cfg: cfg.normalized()}
}

// Allow increments the window counter for key.
func (r *Redis) Allow(ctx context.Context, key string) (Result, error) {
	fullKey := redisKeyPrefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	limit := r.cfg.RequestsPerMinute + r.cfg.Burst
	count := int(incr.Val())

	res := Result{Limit: limit, Remaining: limit - count}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if count <= limit {
		res.Allowed = true
		return res, nil
	}

	res.RetryAfter = ttl.Val()
	if res.RetryAfter <= 0 {
		res.RetryAfter = window
	}
	return res, nil
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
