package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"admctl/internal/domain"
	"admctl/pkg/redis"
)

// CacheService keeps read-side copies of activation records so repeated list
// and detail fetches avoid the remote API. Mutations invalidate eagerly; the
// API stays the source of truth.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{
		redis:  redisClient,
		logger: logger,
	}
}

// GetActivationWithCache retrieves one activation with a cache-aside pattern.
// Cache corruption or errors fall back to the API; successful fetches are
// cached asynchronously (fire and forget).
func (c *CacheService) GetActivationWithCache(ctx context.Context, activationID string, apiFallback func(ctx context.Context, id string) (*domain.Activation, error)) (*domain.Activation, error) {
	cacheKey := c.redis.KeyBuilder.KeyActivationByID(activationID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var activation domain.Activation
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &activation); unmarshalErr == nil {
			c.logger.Debug("Activation cache hit", zap.String("activation_id", activationID))
			return &activation, nil
		} else {
			c.logger.Warn("Activation cache corrupted, falling back to API",
				zap.String("activation_id", activationID),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && err != goredis.Nil {
		c.logger.Warn("Activation cache error, falling back to API",
			zap.String("activation_id", activationID),
			zap.Error(err))
	}

	c.logger.Debug("Activation cache miss", zap.String("activation_id", activationID))
	activation, err := apiFallback(ctx, activationID)
	if err != nil {
		return nil, fmt.Errorf("API fallback failed: %w", err)
	}

	if activation != nil {
		go c.cacheJSONAsync(cacheKey, activation, redis.TTLActivation)
	}

	return activation, nil
}

// ListActivationsWithCache retrieves a partner's activation list with the
// same cache-aside pattern as single records.
func (c *CacheService) ListActivationsWithCache(ctx context.Context, partnerID string, apiFallback func(ctx context.Context, partnerID string) ([]domain.Activation, error)) ([]domain.Activation, error) {
	cacheKey := c.redis.KeyBuilder.KeyActivationsByPartner(partnerID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var activations []domain.Activation
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &activations); unmarshalErr == nil {
			c.logger.Debug("Activation list cache hit", zap.String("partner_id", partnerID))
			return activations, nil
		} else {
			c.logger.Warn("Activation list cache corrupted, falling back to API",
				zap.String("partner_id", partnerID),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && err != goredis.Nil {
		c.logger.Warn("Activation list cache error, falling back to API",
			zap.String("partner_id", partnerID),
			zap.Error(err))
	}

	c.logger.Debug("Activation list cache miss", zap.String("partner_id", partnerID))
	activations, err := apiFallback(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("API fallback failed: %w", err)
	}

	go c.cacheJSONAsync(cacheKey, activations, redis.TTLActivationList)

	return activations, nil
}

// ListCollectionsWithCache retrieves a partner's collections with the same
// cache-aside pattern as activations.
func (c *CacheService) ListCollectionsWithCache(ctx context.Context, partnerID string, apiFallback func(ctx context.Context, partnerID string) ([]domain.Collection, error)) ([]domain.Collection, error) {
	cacheKey := c.redis.KeyBuilder.KeyCollectionsByPartner(partnerID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var collections []domain.Collection
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &collections); unmarshalErr == nil {
			c.logger.Debug("Collection list cache hit", zap.String("partner_id", partnerID))
			return collections, nil
		}
		c.logger.Warn("Collection list cache corrupted, falling back to API",
			zap.String("partner_id", partnerID))
	} else if err != nil && err != goredis.Nil {
		c.logger.Warn("Collection list cache error, falling back to API",
			zap.String("partner_id", partnerID),
			zap.Error(err))
	}

	collections, err := apiFallback(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("API fallback failed: %w", err)
	}

	go c.cacheJSONAsync(cacheKey, collections, redis.TTLCollections)

	return collections, nil
}

// PartnerStatsWithCache retrieves a partner's aggregate counters. The TTL is
// short; the counters move on every end-user scan.
func (c *CacheService) PartnerStatsWithCache(ctx context.Context, partnerID string, apiFallback func(ctx context.Context, partnerID string) (*domain.Stats, error)) (*domain.Stats, error) {
	cacheKey := c.redis.KeyBuilder.KeyPartnerStats(partnerID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var stats domain.Stats
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &stats); unmarshalErr == nil {
			c.logger.Debug("Partner stats cache hit", zap.String("partner_id", partnerID))
			return &stats, nil
		}
	} else if err != nil && err != goredis.Nil {
		c.logger.Warn("Partner stats cache error, falling back to API",
			zap.String("partner_id", partnerID),
			zap.Error(err))
	}

	stats, err := apiFallback(ctx, partnerID)
	if err != nil {
		return nil, fmt.Errorf("API fallback failed: %w", err)
	}

	if stats != nil {
		go c.cacheJSONAsync(cacheKey, stats, redis.TTLPartnerStats)
	}

	return stats, nil
}

// InvalidateActivation drops the cached record and every cached list after a
// create, update or delete so subsequent fetches see fresh data. Runs
// asynchronously; the submit path never blocks on cache upkeep.
func (c *CacheService) InvalidateActivation(activationID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if activationID != "" {
			key := c.redis.KeyBuilder.KeyActivationByID(activationID)
			if err := c.redis.Delete(ctx, key); err != nil {
				c.logger.Error("Failed to invalidate activation cache",
					zap.String("activation_id", activationID),
					zap.Error(err))
			}
		}

		// Lists are keyed per partner; the submit path does not know which
		// lists contain the record, so drop them all.
		if err := c.redis.InvalidatePattern(ctx, c.redis.KeyBuilder.PatternActivations()); err != nil {
			c.logger.Error("Failed to invalidate activation list caches", zap.Error(err))
		}

		c.logger.Debug("Activation caches invalidated", zap.String("activation_id", activationID))
	}()
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

// cacheJSONAsync marshals and stores one value without blocking the caller.
func (c *CacheService) cacheJSONAsync(cacheKey string, value interface{}, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("Failed to marshal value for caching",
			zap.String("key", cacheKey),
			zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, cacheKey, string(data), ttl); err != nil {
		c.logger.Error("Failed to cache value",
			zap.String("key", cacheKey),
			zap.Error(err))
	}
}
