package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusmarket/marketplace-service/internal/domain"
	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	adKeyPrefix = "ad:"
	adCacheTTL  = 5 * time.Minute
)

// AdCache is a Redis read-through cache for single-ad lookups. Every
// mutation path invalidates, so the TTL only bounds staleness after an
// out-of-band write.
type AdCache struct {
	client *redis.Client
	logger *logger.Logger
}

// NewAdCache connects to Redis and returns the cache.
func NewAdCache(ctx context.Context, addr, password string, db int, log *logger.Logger) (*AdCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &AdCache{
		client: client,
		logger: log.Named("AdCache"),
	}, nil
}

// Get returns the cached ad, or (nil, nil) on a miss.
func (c *AdCache) Get(ctx context.Context, adID string) (*domain.Ad, error) {
	data, err := c.client.Get(ctx, adKeyPrefix+adID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var ad domain.Ad
	if err := json.Unmarshal(data, &ad); err != nil {
		c.logger.Warn("Failed to unmarshal cached ad, treating as miss", zap.Error(err), zap.String("ad_id", adID))
		return nil, nil
	}
	return &ad, nil
}

// Set stores the ad with the cache TTL.
func (c *AdCache) Set(ctx context.Context, ad *domain.Ad) error {
	data, err := json.Marshal(ad)
	if err != nil {
		return fmt.Errorf("failed to marshal ad for cache: %w", err)
	}
	if err := c.client.Set(ctx, adKeyPrefix+ad.ID.Hex(), data, adCacheTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Invalidate drops the cached ad.
func (c *AdCache) Invalidate(ctx context.Context, adID string) error {
	if err := c.client.Del(ctx, adKeyPrefix+adID).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *AdCache) Close() error {
	return c.client.Close()
}
