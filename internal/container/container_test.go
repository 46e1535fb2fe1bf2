package container

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"admctl/internal/config"
	"admctl/pkg/logger"
)

func testConfig(t *testing.T, redisURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL:   "https://api.img-motion.test",
		TokenPath:   filepath.Join(t.TempDir(), "img-motion-auth-token"),
		RedisURL:    redisURL,
		LogLevel:    "info",
		Environment: "test",
		PreviewAddr: "127.0.0.1:0",
	}
}

func TestNew(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	tests := []struct {
		name        string
		redisURL    string
		expectRedis bool
	}{
		{
			name:        "Container with Redis configured",
			redisURL:    "redis://" + mr.Addr(),
			expectRedis: true,
		},
		{
			name:        "Container without Redis configured",
			redisURL:    "",
			expectRedis: false,
		},
		{
			name: "Container with unreachable Redis",
			// Initialization fails but container creation succeeds.
			redisURL:    "redis://127.0.0.1:1",
			expectRedis: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testLogger, err := logger.New("info", "test")
			require.NoError(t, err)

			c, err := New(testConfig(t, tt.redisURL), testLogger)
			require.NoError(t, err)
			require.NotNil(t, c)
			t.Cleanup(func() { _ = c.Close() })

			assert.NotNil(t, c.GetSession())
			assert.NotNil(t, c.GetAPIClient())
			assert.Equal(t, tt.expectRedis, c.HasRedis())

			if tt.expectRedis {
				assert.NotNil(t, c.GetCacheService())
			} else {
				assert.Nil(t, c.GetCacheService())
			}
		})
	}
}
