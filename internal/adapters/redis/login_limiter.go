package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiterOptions configures LoginLimiter.
type LoginLimiterOptions struct {
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// LoginLimiter counts failed password attempts per key in a fixed window
// that starts at the first failure.
type LoginLimiter struct {
	client redis.UniversalClient
	max    int64
	window time.Duration
	prefix string
}

// NewLoginLimiter creates a LoginLimiter. Non-positive options fall back to
// 5 attempts per 15 minutes.
func NewLoginLimiter(client redis.UniversalClient, opts LoginLimiterOptions) *LoginLimiter {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Window <= 0 {
		opts.Window = 15 * time.Minute
	}
	if opts.Prefix == "" {
		opts.Prefix = "login:fail:"
	}
	return &LoginLimiter{
		client: client,
		max:    int64(opts.MaxAttempts),
		window: opts.Window,
		prefix: opts.Prefix,
	}
}

func (l *LoginLimiter) key(k string) string {
	return l.prefix + strings.ToLower(strings.TrimSpace(k))
}

// Allow reports whether key is below the failure limit. When it is not, the
// remaining lockout is returned.
func (l *LoginLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, 0, nil
		}
		return false, 0, fmt.Errorf("redis get: %w", err)
	}
	if count < l.max {
		return true, 0, nil
	}
	k := l.key(key)
	ttl, err := l.client.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl < 0 {
		// A counter without expiry would lock the key for good.
		if err := l.client.ExpireNX(ctx, k, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
		ttl = l.window
	}
	return false, ttl, nil
}

// RecordFailure increments the failure counter. The window starts at the
// first failure; EXPIRE NX in the same transaction leaves a running window
// alone and arms one that is missing.
func (l *LoginLimiter) RecordFailure(ctx context.Context, key string) error {
	k := l.key(key)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis record failure: %w", err)
	}
	return nil
}

// Reset clears the failure counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
