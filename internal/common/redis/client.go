package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/autoinsurance/storefront/internal/common/configtypes"
)

type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClient connects and pings. go-redis defaults apply for pool and
// socket timeouts.
func NewClient(cfg *configtypes.LeadsRedisConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client := &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		_ = client.rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Debug("Redis client connected",
		zap.String("addr", cfg.Addr),
		zap.Int("db", cfg.DB))

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	result, err := c.rdb.Ping(ctx).Result()
	if err != nil {
		c.logger.Error("Redis ping failed", zap.Error(err))
		return err
	}
	if result != "PONG" {
		c.logger.Error("Redis ping returned unexpected response", zap.String("response", result))
		return fmt.Errorf("unexpected ping response: %s", result)
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	start := time.Now()
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	c.logger.Debug("Redis health check passed", zap.Duration("duration", time.Since(start)))
	return nil
}

// XAdd appends an entry to a stream, trimming it to roughly maxLen entries
// when maxLen is positive. Returns the entry ID.
func (c *Client) XAdd(ctx context.Context, stream string, maxLen int64, values map[string]interface{}) (string, error) {
	args := &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}
	if maxLen > 0 {
		args.MaxLen = maxLen
		args.Approx = true
	}

	id, err := c.rdb.XAdd(ctx, args).Result()
	if err != nil {
		c.logger.Error("Redis XADD failed",
			zap.String("stream", stream),
			zap.Error(err))
		return "", fmt.Errorf("redis xadd failed: %w", err)
	}
	return id, nil
}

func (c *Client) XLen(ctx context.Context, stream string) (int64, error) {
	n, err := c.rdb.XLen(ctx, stream).Result()
	if err != nil {
		c.logger.Error("Redis XLEN failed",
			zap.String("stream", stream),
			zap.Error(err))
		return 0, fmt.Errorf("redis xlen failed: %w", err)
	}
	return n, nil
}

// HIncrBy bumps a hash counter and returns the new value
func (c *Client) HIncrBy(ctx context.Context, key, field string, incr int64) (int64, error) {
	n, err := c.rdb.HIncrBy(ctx, key, field, incr).Result()
	if err != nil {
		c.logger.Error("Redis HINCRBY failed",
			zap.String("key", key),
			zap.String("field", field),
			zap.Error(err))
		return 0, fmt.Errorf("redis hincrby failed: %w", err)
	}
	return n, nil
}

func (c *Client) HGet(ctx context.Context, key, field string) (string, error) {
	result, err := c.rdb.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		c.logger.Error("Redis HGET failed",
			zap.String("key", key),
			zap.String("field", field),
			zap.Error(err))
		return "", fmt.Errorf("redis hget failed: %w", err)
	}
	return result, nil
}

func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	if err := c.rdb.Close(); err != nil {
		c.logger.Error("Failed to close Redis client", zap.Error(err))
		return err
	}
	c.logger.Debug("Redis client closed")
	return nil
}
