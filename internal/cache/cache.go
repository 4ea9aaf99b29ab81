package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/moderation"
	"go.uber.org/zap"
)

// ResultCache handles Redis-based caching of detection results keyed by a
// hash of the input text. Detection is deterministic for a given pattern
// set, so a hit skips the whole regex pass.
type ResultCache struct {
	client *redis.Client
	config config.CacheConfig
	logger *zap.Logger
	stats  *cacheStats
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	hits   int64
	misses int64
}

// Stats reports cache performance.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewResultCache creates a Redis-backed detection result cache.
func NewResultCache(cfg config.CacheConfig, logger *zap.Logger) (*ResultCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.PoolSize = cfg.MaxConnections
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	cache := &ResultCache{
		client: client,
		config: cfg,
		logger: logger,
		stats:  &cacheStats{},
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Result cache initialized",
		zap.String("redis_url", maskRedisURL(cfg.RedisURL)),
		zap.Duration("default_ttl", cfg.DefaultTTL))

	return cache, nil
}

// Get returns a cached detection result for the text, if present. Any Redis
// failure is reported as a miss so callers fall through to detection.
func (c *ResultCache) Get(ctx context.Context, text string) (*moderation.Result, bool) {
	key := c.textKey(text)

	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		c.stats.misses++
		return nil, false
	} else if err != nil {
		c.stats.misses++
		c.logger.Error("Cache lookup failed", zap.Error(err))
		return nil, false
	}

	var result moderation.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("Failed to unmarshal cached result", zap.Error(err))
		// Delete corrupted cache entry
		c.client.Del(ctx, key)
		c.stats.misses++
		return nil, false
	}

	c.stats.hits++
	c.logger.Debug("Cache hit", zap.String("key", key))
	return &result, true
}

// Set caches a detection result with the configured TTL.
func (c *ResultCache) Set(ctx context.Context, text string, result moderation.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result for caching: %w", err)
	}

	key := c.textKey(text)
	if err := c.client.Set(ctx, key, data, c.config.DefaultTTL).Err(); err != nil {
		c.logger.Error("Failed to cache result", zap.Error(err))
		return fmt.Errorf("failed to cache result: %w", err)
	}

	c.logger.Debug("Result cached", zap.String("key", key))
	return nil
}

// GetStats returns cache performance statistics.
func (c *ResultCache) GetStats() Stats {
	stats := Stats{
		Hits:   c.stats.hits,
		Misses: c.stats.misses,
	}
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// Clear removes all cached results under this cache's prefix.
func (c *ResultCache) Clear(ctx context.Context) error {
	pattern := c.config.KeyPrefix + ":result:*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}

	c.logger.Info("Cache cleared", zap.Int("deleted_keys", len(keys)))
	return nil
}

// Close closes the Redis connection.
func (c *ResultCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// textKey derives a stable cache key from the input text.
func (c *ResultCache) textKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:result:%s", c.config.KeyPrefix, hex.EncodeToString(sum[:])[:32])
}

// maskRedisURL masks credentials in a Redis URL for logging.
func maskRedisURL(url string) string {
	if strings.Contains(url, "@") {
		parts := strings.Split(url, "@")
		if len(parts) >= 2 {
			userPart := parts[0]
			if strings.Contains(userPart, ":") {
				userParts := strings.Split(userPart, ":")
				if len(userParts) >= 3 {
					userParts[len(userParts)-1] = "***"
					parts[0] = strings.Join(userParts, ":")
				}
			}
			return strings.Join(parts, "@")
		}
	}
	return url
}
