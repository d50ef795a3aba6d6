package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "brandos:llm:"

// CachedClient memoizes text and JSON generations in Redis.
// Image prompts are never cached. Redis failures fall through to the inner client.
type CachedClient struct {
	inner  Client
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient wraps inner with a Redis cache.
func NewCachedClient(inner Client, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

// NewRedis parses a redis:// URL and returns a connected client.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// CacheKey derives the Redis key for a generation request.
func CacheKey(kind string, tier ModelTier, o Options, prompt string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%.2f|%t|", kind, tier, o.Temperature, o.JSON)
	h.Write([]byte(prompt))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

// GenerateContent returns a cached response or delegates and stores the result.
func (c *CachedClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error) {
	key := CacheKey("text", tier, ApplyOptions(opts), prompt)
	return c.cached(ctx, key, func() (string, error) {
		return c.inner.GenerateContent(ctx, prompt, tier, opts...)
	})
}

// GenerateJSON returns a cached response or delegates and stores the result.
func (c *CachedClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier, opts ...Option) (string, error) {
	key := CacheKey("json", tier, ApplyOptions(opts), prompt)
	return c.cached(ctx, key, func() (string, error) {
		return c.inner.GenerateJSON(ctx, prompt, tier, opts...)
	})
}

// GenerateWithImage always delegates.
func (c *CachedClient) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string, tier ModelTier, opts ...Option) (string, error) {
	return c.inner.GenerateWithImage(ctx, prompt, image, mimeType, tier, opts...)
}

// GetModel delegates to the inner client.
func (c *CachedClient) GetModel(tier ModelTier) string {
	return c.inner.GetModel(tier)
}

// Close closes the inner client. The Redis client is owned by the caller.
func (c *CachedClient) Close() error {
	return c.inner.Close()
}

func (c *CachedClient) cached(ctx context.Context, key string, generate func() (string, error)) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		c.logger.Debug("llm cache hit", zap.String("key", key))
		return val, nil
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("llm cache read failed", zap.Error(err))
	}

	out, err := generate()
	if err != nil {
		return "", err
	}

	if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
		c.logger.Warn("llm cache write failed", zap.Error(err))
	}
	return out, nil
}
