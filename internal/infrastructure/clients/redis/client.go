package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/odontosys/odontogram-engine/pkg/config"
	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// Client wraps the Redis connection shared by the cache adapter and the
// event bus.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection before returning.
// Callers treat a failure here as a degraded-mode signal, not a fatal one.
func NewClient(cfg *config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Client returns the underlying Redis client
func (c *Client) Client() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies the connection to Redis
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
