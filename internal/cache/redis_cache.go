package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
)

const featuredTTL = 7 * 24 * time.Hour

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var (
	_ service.FeaturedStore = (*RedisCache)(nil)
	_ service.AnalysisCache = (*RedisCache)(nil)
	_ service.RunLocker     = (*RedisCache)(nil)
)

// RedisCache stores featured picks, cached analyses and the run lock in Redis
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// RedisCacheConfig holds Redis cache configuration
type RedisCacheConfig struct {
	Addr     string // e.g., "localhost:6379"
	Password string
	DB       int
	TTL      time.Duration // analysis TTL, e.g., 5 * time.Minute
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(config RedisCacheConfig, logger zerolog.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    config.TTL,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

func featuredKey(day string) string { return "featured:" + day }
func analysisKey(key string) string { return "analysis:" + key }
func lockKey(key string) string     { return "lock:" + key }

// ReplaceFeatured overwrites the featured set for day. An empty set deletes it.
func (c *RedisCache) ReplaceFeatured(ctx context.Context, day string, picks []models.FeaturedPick) error {
	key := featuredKey(day)

	data, err := json.Marshal(picks)
	if err != nil {
		return fmt.Errorf("failed to marshal featured picks: %w", err)
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(picks) > 0 {
			pipe.Set(ctx, key, data, featuredTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace featured picks: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Int("count", len(picks)).
		Msg("replaced featured picks")

	return nil
}

// GetFeatured returns the featured picks for day, empty when none were generated
func (c *RedisCache) GetFeatured(ctx context.Context, day string) ([]models.FeaturedPick, error) {
	data, err := c.client.Get(ctx, featuredKey(day)).Bytes()
	if err == redis.Nil {
		return []models.FeaturedPick{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var picks []models.FeaturedPick
	if err := json.Unmarshal(data, &picks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal featured picks: %w", err)
	}

	return picks, nil
}

// GetAnalysis retrieves a cached analysis
func (c *RedisCache) GetAnalysis(ctx context.Context, key string) (*models.AnalysisResult, error) {
	data, err := c.client.Get(ctx, analysisKey(key)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("analysis not found in cache: %w", service.ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get from Redis: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	return &result, nil
}

// SetAnalysis caches an analysis with the configured TTL
func (c *RedisCache) SetAnalysis(ctx context.Context, key string, result *models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	if err := c.client.Set(ctx, analysisKey(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in Redis: %w", err)
	}

	c.logger.Debug().
		Str("key", key).
		Dur("ttl", c.ttl).
		Msg("cached analysis")

	return nil
}

// AcquireLock takes key with SET NX PX and returns the holder token
func (c *RedisCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// ReleaseLock deletes key only if token still holds it
func (c *RedisCache) ReleaseLock(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, c.client, []string{lockKey(key)}, token).Err(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Ping checks Redis connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
