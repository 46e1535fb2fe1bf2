package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name:        "invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", zap.NewNop())
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
			}
		})
	}
}

func TestClient_SetGet(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	key := client.KeyBuilder.KeyActivationByID("abc")
	require.NoError(t, client.Set(ctx, key, `{"_id":"abc"}`, TTLActivation))

	val, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"_id":"abc"}`, val)
}

func TestClient_GetMissingKey(t *testing.T) {
	_, client := setupTestRedis(t)

	_, err := client.Get(context.Background(), "staging:activations:id:nope")
	assert.Error(t, err)
}

func TestClient_Delete(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	key := client.KeyBuilder.KeyActivationByID("abc")
	require.NoError(t, client.Set(ctx, key, "v", time.Minute))
	require.NoError(t, client.Delete(ctx, key))

	n, err := client.Exists(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClient_SetRespectsTTL(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	key := client.KeyBuilder.KeyActivationsByPartner("p1")
	require.NoError(t, client.Set(ctx, key, "[]", TTLActivationList))

	mr.FastForward(TTLActivationList + time.Second)

	_, err := client.Get(ctx, key)
	assert.Error(t, err)
}

func TestClient_InvalidatePattern(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, client.KeyBuilder.KeyActivationByID("a"), "1", time.Minute))
	require.NoError(t, client.Set(ctx, client.KeyBuilder.KeyActivationsByPartner("p"), "2", time.Minute))
	require.NoError(t, client.Set(ctx, client.KeyBuilder.KeyPartnerStats("p"), "3", time.Minute))

	require.NoError(t, client.InvalidatePattern(ctx, client.KeyBuilder.PatternActivations()))

	n, err := client.Exists(ctx,
		client.KeyBuilder.KeyActivationByID("a"),
		client.KeyBuilder.KeyActivationsByPartner("p"))
	require.NoError(t, err)
	assert.Zero(t, n)

	// Keys outside the pattern survive.
	n, err = client.Exists(ctx, client.KeyBuilder.KeyPartnerStats("p"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("production")
	assert.Equal(t, "prod", kb.GetPrefix())
	assert.Equal(t, "prod:activations:id:x", kb.KeyActivationByID("x"))

	kb = NewKeyBuilder("development")
	assert.Equal(t, "staging", kb.GetPrefix())
	assert.Equal(t, "staging:activations:partner:p", kb.KeyActivationsByPartner("p"))
}
