// Package cache provides the redis read-through cache for generated
// insight snapshots.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crmhub/backend/internal/domain/insights"
	"github.com/crmhub/backend/internal/infrastructure/config"
	"github.com/crmhub/backend/internal/infrastructure/logger"
)

const insightKeyPrefix = "insight:"

// RedisInsightCache caches insight snapshots in redis. Cache failures
// degrade to the store read; they are logged, never surfaced.
type RedisInsightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisInsightCache connects to redis and verifies the connection.
func NewRedisInsightCache(cfg *config.RedisConfig) (*RedisInsightCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisInsightCache{client: client, ttl: cfg.TTL}, nil
}

// NewRedisInsightCacheWithClient wraps an existing client, for tests or
// shared pools.
func NewRedisInsightCacheWithClient(client *redis.Client, ttl time.Duration) *RedisInsightCache {
	return &RedisInsightCache{client: client, ttl: ttl}
}

func insightKey(tenantID, date string) string {
	return insightKeyPrefix + tenantID + ":" + date
}

// GetInsight returns the cached snapshot and whether it was present.
func (c *RedisInsightCache) GetInsight(ctx context.Context, tenantID, date string) (*insights.Insight, bool) {
	raw, err := c.client.Get(ctx, insightKey(tenantID, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.L(ctx).Warn("insight cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var insight insights.Insight
	if err := json.Unmarshal(raw, &insight); err != nil {
		logger.L(ctx).Warn("corrupt cached insight dropped", zap.Error(err))
		return nil, false
	}
	return &insight, true
}

// SetInsight stores the snapshot with the configured TTL.
func (c *RedisInsightCache) SetInsight(ctx context.Context, tenantID string, insight *insights.Insight) {
	raw, err := json.Marshal(insight)
	if err != nil {
		logger.L(ctx).Warn("insight cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, insightKey(tenantID, insight.Date), raw, c.ttl).Err(); err != nil {
		logger.L(ctx).Warn("insight cache write failed", zap.Error(err))
	}
}

// Close releases the redis connection.
func (c *RedisInsightCache) Close() error {
	return c.client.Close()
}
