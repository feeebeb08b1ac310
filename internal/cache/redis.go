// Package cache provides an optional Redis cache for slow-changing
// reference data (the tag vocabulary, user profiles). The client works
// identically without it; a nil client turns every operation into a miss.
package cache

import (
	"context"
	"strings"
	"time"

	"campus/internal/observability"

	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// InitRedis initializes the Redis client with the given address or URL.
// Connection failure is not fatal; the cache just stays disabled.
func InitRedis(addr string) {
	logger := observability.GlobalLogger.Component("cache")

	if addr == "" {
		client = nil
		return
	}

	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			logger.Warn("invalid REDIS_URL, continuing without cache", "url", addr, "error", err)
			client = nil
			return
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client = redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, continuing without cache", "error", err)
		client = nil
	} else {
		logger.Info("redis connected")
	}
}

// SetClient replaces the Redis client. Tests use it with miniredis.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the current Redis client instance, possibly nil.
func GetClient() *redis.Client {
	return client
}

// get returns the raw cached value, or "" on miss or disabled cache.
func get(ctx context.Context, key string) string {
	if client == nil {
		return ""
	}
	val, err := client.Get(ctx, key).Result()
	if err != nil {
		return ""
	}
	return val
}

// set stores a value with TTL. Write failures are silent; the cache is
// best-effort.
func set(ctx context.Context, key, value string, ttl time.Duration) {
	if client == nil {
		return
	}
	client.Set(ctx, key, value, ttl)
}

// Invalidate removes a key.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}
