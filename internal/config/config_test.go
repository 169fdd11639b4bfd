package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no config.yaml present

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 6, cfg.Search.MaxResults)
	assert.Equal(t, "tr-TR", cfg.Search.Locale)
	assert.Equal(t, "TRY", cfg.Pricing.Currency)
	assert.Equal(t, 4000, cfg.Pricing.ContextCharLimit)
	assert.Equal(t, 30, cfg.Pricing.StageTimeoutSecs)
	assert.Equal(t, 4, cfg.Refresh.Concurrency)
	assert.Equal(t, 168*time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PRICEWATCH_SEARCH_LOCALE", "en-US")
	t.Setenv("PRICEWATCH_PRICING_CURRENCY", "USD")
	t.Setenv("PRICEWATCH_REFRESH_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "en-US", cfg.Search.Locale)
	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, 8, cfg.Refresh.Concurrency)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	assert.NoError(t, err)
}
