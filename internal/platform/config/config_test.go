package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"NEOM_LOG_LEVEL", "NEOM_DATABASE_TABLE", "NEOM_SQLITE_PATH", "NEOM_CACHE_TTL", "NEOM_PREVIEW_ADDR", "NEOM_COVERAGE_THRESHOLD", "NEOM_KIT_MINIFY"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "entities", cfg.Database.Table)
	assert.Empty(t, cfg.Database.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, ":8080", cfg.Preview.Addr)
	assert.False(t, cfg.Preview.Minify)
	assert.InDelta(t, 80.0, cfg.Coverage.Threshold, 0.001)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("NEOM_LOG_FORMAT", "json")
	t.Setenv("NEOM_CACHE_TTL", "30s")
	t.Setenv("NEOM_REDIS_POOL_SIZE", "4")
	t.Setenv("NEOM_COVERAGE_THRESHOLD", "92.5")
	t.Setenv("NEOM_KIT_MINIFY", "true")
	t.Setenv("NEOM_SQLITE_PATH", "/tmp/neom.db")

	cfg := FromEnv()
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 4, cfg.Redis.PoolSize)
	assert.InDelta(t, 92.5, cfg.Coverage.Threshold, 0.001)
	assert.True(t, cfg.Preview.Minify)
	assert.Equal(t, "/tmp/neom.db", cfg.Database.SQLitePath)
}

func TestFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("NEOM_CACHE_TTL", "soon")
	t.Setenv("NEOM_REDIS_POOL_SIZE", "many")

	cfg := FromEnv()
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
