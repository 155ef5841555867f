package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"errors"        // Error inspection
	"fmt"           // Error wrapping
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
)

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if errors.Is(err, redis.Nil) {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err) // Other Redis error
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err) // Entry written by another shape
	}
	return true, nil
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err) // Return error if marshaling fails
	}
	if err := rdb.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err) // Set value in Redis with TTL, zero keeps it forever
	}
	return nil
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete %v: %w", keys, err) // Delete keys from Redis
	}
	return nil
}

// RedisCache adapts the helpers above to a small Get/Set/Delete interface
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an already connected client
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return GetCache(ctx, c.rdb, key, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return SetCache(ctx, c.rdb, key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return DeleteCache(ctx, c.rdb, keys...)
}
