package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by CacheStore.Get when the key is absent
var ErrCacheMiss = errors.New("cache: key not found")

// CacheStore defines the interface for the listing cache backend
type CacheStore interface {
	// Get returns the value stored under key, or ErrCacheMiss
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given time-to-live
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// DeleteByPrefix removes every key that starts with prefix
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// RedisCache implements CacheStore on top of a Redis client
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache store
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the value stored under key, or ErrCacheMiss
func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores value under key with the given time-to-live
func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every key that starts with prefix.
// The scan and delete are not atomic: entries written by a concurrent
// request may survive, which the coarse TTL bounds anyway.
func (r *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s*: %w", prefix, err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
