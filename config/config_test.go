// ABOUTME: Tests for config file loading, defaults and environment overrides
// ABOUTME: Uses temp directories and t.Setenv so nothing leaks between tests
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL.Std())
	assert.Equal(t, time.Second, cfg.SlowQueryThreshold.Std())
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval.Std())
	assert.Equal(t, 20, cfg.PageSize)
	assert.False(t, cfg.FenceRequests)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"cache_ttl":"90s","page_size":50,"fence_requests":true}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.CacheTTL.Std())
	assert.Equal(t, 50, cfg.PageSize)
	assert.True(t, cfg.FenceRequests)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"cache_ttl":"soon"}`), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CRMACTIVITY_CACHE_BACKEND", "redis")
	t.Setenv("CRMACTIVITY_REDIS_ADDR", "localhost:6379")
	t.Setenv("CRMACTIVITY_SLOW_QUERY_THRESHOLD", "250ms")
	t.Setenv("CRMACTIVITY_MAX_SELECTIONS", "25")
	t.Setenv("CRMACTIVITY_FENCE_REQUESTS", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold.Std())
	assert.Equal(t, 25, cfg.MaxSelections)
	assert.True(t, cfg.FenceRequests)
	assert.NoError(t, cfg.Validate())
}

func TestEnvOverrideRejectsBadValues(t *testing.T) {
	t.Setenv("CRMACTIVITY_PAGE_SIZE", "lots")

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PageSize = 0
	cfg.CacheTTL = 0
	cfg.CacheBackend = "memcached"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page_size")
	assert.Contains(t, err.Error(), "cache_ttl")
	assert.Contains(t, err.Error(), "memcached")

	cfg = DefaultConfig()
	cfg.CacheBackend = CacheRedis
	assert.ErrorContains(t, cfg.Validate(), "redis_addr")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	cfg := DefaultConfig()
	cfg.RefreshInterval = Duration(time.Minute)
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"refresh_interval": "1m0s"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, loaded.RefreshInterval.Std())
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), ".env")))

	const key = "CRMACTIVITY_ENVFILE_TEST"
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv(key))
}
