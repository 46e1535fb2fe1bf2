package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"admctl/internal/domain"
	"admctl/pkg/redis"
)

func setupCacheService(t *testing.T) (*miniredis.Miniredis, *redis.Client, *CacheService) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client, NewCacheService(client, zap.NewNop())
}

func TestCacheService_GetActivationCacheMissCallsAPI(t *testing.T) {
	_, client, cache := setupCacheService(t)

	calls := 0
	fallback := func(ctx context.Context, id string) (*domain.Activation, error) {
		calls++
		return &domain.Activation{ID: id, QRCodeURL: "https://cdn.example.com/qr.png"}, nil
	}

	activation, err := cache.GetActivationWithCache(context.Background(), "a1", fallback)
	require.NoError(t, err)
	assert.Equal(t, "a1", activation.ID)
	assert.Equal(t, 1, calls)

	// The fetched record is cached asynchronously.
	key := client.KeyBuilder.KeyActivationByID("a1")
	assert.Eventually(t, func() bool {
		val, err := client.Get(context.Background(), key)
		return err == nil && val != ""
	}, time.Second, 10*time.Millisecond)
}

func TestCacheService_GetActivationCacheHitSkipsAPI(t *testing.T) {
	_, client, cache := setupCacheService(t)

	cached, err := json.Marshal(domain.Activation{ID: "a1"})
	require.NoError(t, err)
	key := client.KeyBuilder.KeyActivationByID("a1")
	require.NoError(t, client.Set(context.Background(), key, string(cached), redis.TTLActivation))

	fallback := func(ctx context.Context, id string) (*domain.Activation, error) {
		t.Fatal("API must not be called on cache hit")
		return nil, nil
	}

	activation, err := cache.GetActivationWithCache(context.Background(), "a1", fallback)
	require.NoError(t, err)
	assert.Equal(t, "a1", activation.ID)
}

func TestCacheService_CorruptedCacheFallsBack(t *testing.T) {
	_, client, cache := setupCacheService(t)

	key := client.KeyBuilder.KeyActivationByID("a1")
	require.NoError(t, client.Set(context.Background(), key, "{not json", redis.TTLActivation))

	calls := 0
	fallback := func(ctx context.Context, id string) (*domain.Activation, error) {
		calls++
		return &domain.Activation{ID: id}, nil
	}

	activation, err := cache.GetActivationWithCache(context.Background(), "a1", fallback)
	require.NoError(t, err)
	assert.Equal(t, "a1", activation.ID)
	assert.Equal(t, 1, calls)
}

func TestCacheService_FallbackErrorPropagates(t *testing.T) {
	_, _, cache := setupCacheService(t)

	fallback := func(ctx context.Context, id string) (*domain.Activation, error) {
		return nil, errors.New("api down")
	}

	_, err := cache.GetActivationWithCache(context.Background(), "a1", fallback)
	assert.Error(t, err)
}

func TestCacheService_ListActivations(t *testing.T) {
	_, client, cache := setupCacheService(t)

	fallback := func(ctx context.Context, partnerID string) ([]domain.Activation, error) {
		return []domain.Activation{{ID: "a1"}, {ID: "a2"}}, nil
	}

	list, err := cache.ListActivationsWithCache(context.Background(), "p1", fallback)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	key := client.KeyBuilder.KeyActivationsByPartner("p1")
	assert.Eventually(t, func() bool {
		val, err := client.Get(context.Background(), key)
		return err == nil && val != ""
	}, time.Second, 10*time.Millisecond)
}

func TestCacheService_ListCollections(t *testing.T) {
	_, client, cache := setupCacheService(t)

	calls := 0
	fallback := func(ctx context.Context, partnerID string) ([]domain.Collection, error) {
		calls++
		return []domain.Collection{{ID: "c1", Title: "Posters"}}, nil
	}

	list, err := cache.ListCollectionsWithCache(context.Background(), "p1", fallback)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, calls)

	key := client.KeyBuilder.KeyCollectionsByPartner("p1")
	assert.Eventually(t, func() bool {
		val, err := client.Get(context.Background(), key)
		return err == nil && val != ""
	}, time.Second, 10*time.Millisecond)
}

func TestCacheService_PartnerStatsCacheHit(t *testing.T) {
	_, client, cache := setupCacheService(t)

	cached, err := json.Marshal(domain.Stats{ActivationsCount: 7})
	require.NoError(t, err)
	key := client.KeyBuilder.KeyPartnerStats("p1")
	require.NoError(t, client.Set(context.Background(), key, string(cached), redis.TTLPartnerStats))

	fallback := func(ctx context.Context, partnerID string) (*domain.Stats, error) {
		t.Fatal("API must not be called on cache hit")
		return nil, nil
	}

	stats, err := cache.PartnerStatsWithCache(context.Background(), "p1", fallback)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.ActivationsCount)
}

func TestCacheService_InvalidateActivation(t *testing.T) {
	_, client, cache := setupCacheService(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, client.KeyBuilder.KeyActivationByID("a1"), "{}", redis.TTLActivation))
	require.NoError(t, client.Set(ctx, client.KeyBuilder.KeyActivationsByPartner("p1"), "[]", redis.TTLActivationList))

	cache.InvalidateActivation("a1")

	assert.Eventually(t, func() bool {
		n, err := client.Exists(ctx,
			client.KeyBuilder.KeyActivationByID("a1"),
			client.KeyBuilder.KeyActivationsByPartner("p1"))
		return err == nil && n == 0
	}, time.Second, 10*time.Millisecond)
}
