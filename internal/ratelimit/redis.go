package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "roster:ratelimit:"

// Redis is a Policy shared by every replica pointing at the same server.
type Redis struct {
	client *redis.Client
	limit  int
	period time.Duration
}

func NewRedis(client *redis.Client, limit int, period time.Duration) *Redis {
	return &Redis{client: client, limit: limit, period: period}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	pipe := r.client.Pipeline()
	get := pipe.Get(ctx, keyPrefix+key)
	ttl := pipe.PTTL(ctx, keyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Decision{}, fmt.Errorf("read attempts: %w", err)
	}

	failures, err := get.Int()
	if errors.Is(err, redis.Nil) {
		return Decision{Allowed: true, Remaining: r.limit}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("parse attempts: %w", err)
	}
	if failures >= r.limit {
		retry := ttl.Val()
		if retry < 0 {
			retry = r.period
		}
		return Decision{RetryAfter: retry}, nil
	}
	return Decision{Allowed: true, Remaining: r.limit - failures}, nil
}

// Failure increments the counter. The window starts with the first
// failure and is not extended by later ones.
func (r *Redis) Failure(ctx context.Context, key string) error {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, keyPrefix+key)
	ttl := pipe.PTTL(ctx, keyPrefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("count attempt: %w", err)
	}
	if incr.Val() == 1 || ttl.Val() < 0 {
		if err := r.client.PExpire(ctx, keyPrefix+key, r.period).Err(); err != nil {
			return fmt.Errorf("expire attempts: %w", err)
		}
	}
	return nil
}
