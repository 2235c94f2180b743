package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 365, cfg.LookbackDays)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 1825, cfg.RetentionDays)
	assert.False(t, cfg.SyntheticEnabled)
	assert.NotEmpty(t, cfg.RefreshSchedule)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("LOOKBACK_DAYS", "730")
	t.Setenv("FETCH_TIMEOUT_SECONDS", "30")
	t.Setenv("SYNTHETIC_FALLBACK", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 730, cfg.LookbackDays)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.SyntheticEnabled)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("DEV_MODE", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.False(t, cfg.DevMode)
}
