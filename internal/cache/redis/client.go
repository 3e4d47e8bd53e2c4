// Package redis wraps go-redis for the pieces of shared state the API keeps
// outside the document store: the push-notification stream and rate-limit
// windows.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/legalease/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// AddToStream appends one entry to stream and returns its id.
func (c *Client) AddToStream(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	id, err := c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add to stream %s: %w", stream, err)
	}

	logger.Debug("Stream entry added", zap.String("stream", stream), zap.String("id", id))
	return id, nil
}

// StreamLength reports how many entries stream holds.
func (c *Client) StreamLength(ctx context.Context, stream string) (int64, error) {
	return c.client.XLen(ctx, stream).Result()
}

// ReadStream returns up to count entries from the start of stream.
func (c *Client) ReadStream(ctx context.Context, stream string, count int64) ([]redis.XMessage, error) {
	msgs, err := c.client.XRangeN(ctx, stream, "-", "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read stream %s: %w", stream, err)
	}
	return msgs, nil
}

// IncrementWindow bumps the counter for key and starts its expiry on the
// first hit, giving a fixed window of length window.
func (c *Client) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	key = fmt.Sprintf("ratelimit:%s", key)

	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment window: %w", err)
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set window expiry: %w", err)
		}
	}
	return n, nil
}
