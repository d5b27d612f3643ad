// Package ratelimit counts failed attempts per key in fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ilng/roster/config"
)

// Decision is the outcome of Allow.
type Decision struct {
	Allowed bool
	// Remaining is the number of failures still accepted in the window.
	Remaining int
	// RetryAfter is set when Allowed is false.
	RetryAfter time.Duration
}

// Policy decides whether another attempt for key may proceed. Only
// failures are counted; successful attempts never consume the budget.
type Policy interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Failure(ctx context.Context, key string) error
}

// Open returns a Redis policy when cfg.RedisURL is set and an in-memory
// one otherwise.
func Open(ctx context.Context, cfg config.RateLimitConfig) (Policy, func() error, error) {
	if cfg.RedisURL == "" {
		return NewMemory(cfg.MaxAttempts, cfg.Window), func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, cfg.MaxAttempts, cfg.Window), client.Close, nil
}
