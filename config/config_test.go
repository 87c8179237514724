package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Lifecycle.TokenWindow())
	assert.Equal(t, time.Hour, cfg.Lifecycle.ExtendWindow())
	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.OverdueAfter())
	assert.Equal(t, 24*time.Hour, cfg.Lifecycle.ReminderCooldown())
	assert.Equal(t, 1, cfg.Push.PoolSize)
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
lifecycle:
  token_window_minutes: 15
push:
  pool_size: 4
`), 0o644))
	t.Setenv("REDIS_ADDR", "redis.test:6379")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Lifecycle.TokenWindow())
	assert.Equal(t, 4, cfg.Push.PoolSize)
	assert.Equal(t, "redis.test:6379", cfg.RedisAddr)
	// Untouched sections keep their defaults.
	assert.Equal(t, 24, cfg.Lifecycle.OverdueAfterHours)
	assert.Equal(t, 60, cfg.Server.CacheTTLSeconds)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
