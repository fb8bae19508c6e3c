package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig captures the connection parameters for the shared Redis instance.
type RedisConfig struct {
	Address  string
	Username string
	Password string
	DB       int
	TLS      bool
	Timeout  time.Duration
}

const defaultRedisTimeout = 5 * time.Second
const redisKeyPrefix = "studyhub:"

// RedisClient is a Store backed by go-redis. Keys are namespaced with the studyhub prefix.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates a new Redis client. It eagerly pings the server so that
// misconfiguration is surfaced during application startup.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*RedisClient, error) {
	cfg.Address = strings.TrimSpace(cfg.Address)
	if cfg.Address == "" {
		return nil, errors.New("redis: address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRedisTimeout
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.Timeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}

	return &RedisClient{client: client}, nil
}

// Close releases the underlying connection pool.
func (c *RedisClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping reports whether the server is reachable.
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// IncrementWithTTL increments the supplied key and starts its TTL on the first hit only,
// so later hits never extend the window. Redis keeps whole-second expiries; shorter
// windows last one second. It returns the current count and the remaining time-to-live.
func (c *RedisClient) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	prefixedKey := prefixed(key)

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, prefixedKey)
	pipe.ExpireNX(ctx, prefixedKey, window)
	ttl := pipe.PTTL(ctx, prefixedKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("redis: increment %s: %w", key, err)
	}

	remaining := ttl.Val()
	if remaining < 0 {
		remaining = window
	}
	return incr.Val(), remaining, nil
}

func prefixed(key string) string {
	normalized := normalizeKey(key)
	if strings.HasPrefix(normalized, redisKeyPrefix) {
		return normalized
	}
	return redisKeyPrefix + normalized
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
