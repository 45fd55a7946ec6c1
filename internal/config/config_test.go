package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "cpsat", cfg.Solver.DefaultKind)
	assert.Equal(t, int64(42), cfg.Solver.DefaultSeed)
	assert.Equal(t, 1.5, cfg.Resilience.BurnoutThreshold)
	assert.Equal(t, 5.0, cfg.Resilience.BurnoutMultiplier)
	assert.Equal(t, 3, cfg.Resilience.MinimumViable)
	assert.Equal(t, 45*24*time.Hour, cfg.Resilience.HiringDelay)
	assert.Equal(t, "production", cfg.LogLevel)
}

func TestLoadHonorsEnvOverride(t *testing.T) {
	t.Setenv("SCCE_SERVER_PORT", "9090")
	t.Setenv("SCCE_LOG_LEVEL", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "development", cfg.LogLevel)
}

func TestLoadIgnoresMissingConfigFile(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(wd)

	tmp := t.TempDir()
	require.NoError(t, os.Chdir(tmp))

	_, err = Load()
	require.NoError(t, err)
}
