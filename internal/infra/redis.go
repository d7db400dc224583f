package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds tunable parameters for the Redis client.
type RedisOptions struct {
	DialTimeout time.Duration
	PoolSize    int
}

// NewRedisClient creates a Redis client from a redis:// URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string, opts RedisOptions) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	if opts.DialTimeout > 0 {
		options.DialTimeout = opts.DialTimeout
	}
	if opts.PoolSize > 0 {
		options.PoolSize = opts.PoolSize
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
