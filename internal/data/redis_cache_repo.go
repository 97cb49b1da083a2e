package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCachePrefix namespaces cache keys written by RedisCacheRepo.
const DefaultCachePrefix = "complaintdesk:cache:"

// RedisCacheRepo implements the core.CacheRepository interface using Redis.
type RedisCacheRepo struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCacheRepo creates a new RedisCacheRepo with the given Redis client.
func NewRedisCacheRepo(client redis.UniversalClient) *RedisCacheRepo {
	return &RedisCacheRepo{client: client, prefix: DefaultCachePrefix}
}

func (r *RedisCacheRepo) key(k string) (string, error) {
	if k == "" {
		return "", errors.New("key cannot be empty")
	}
	return r.prefix + k, nil
}

// Set stores a value with the given TTL. A zero TTL keeps the key forever.
func (r *RedisCacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k, err := r.key(key)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, k, value, ttl).Err()
}

// Get retrieves a value by key. A missing key returns nil, nil.
func (r *RedisCacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	k, err := r.key(key)
	if err != nil {
		return nil, err
	}
	result, err := r.client.Get(ctx, k).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return result, nil
}

// Delete removes keys. It reports whether any key existed.
func (r *RedisCacheRepo) Delete(ctx context.Context, keys ...string) (bool, error) {
	if len(keys) == 0 {
		return false, nil
	}
	full := make([]string, 0, len(keys))
	for _, key := range keys {
		k, err := r.key(key)
		if err != nil {
			return false, err
		}
		full = append(full, k)
	}
	// Keys may live in different cluster slots, so each gets its own DEL.
	dels := make([]*redis.IntCmd, 0, len(full))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range full {
			dels = append(dels, pipe.Del(ctx, k))
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	for _, c := range dels {
		if c.Val() > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Health checks the health of the Redis connection.
func (r *RedisCacheRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
