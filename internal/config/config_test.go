package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STRATA_DB_PATH", "STRATA_INITIAL_CASH", "STRATA_COMMISSION_RATE",
		"STRATA_SLIPPAGE_RATE", "STRATA_EQUITY_FRACTION", "STRATA_CONCURRENCY",
		"STRATA_LOG_LEVEL", "STRATA_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "strata.db", cfg.DatabasePath)
	assert.True(t, cfg.InitialCash.Equal(decimal.NewFromInt(100_000)))
	assert.True(t, cfg.CommissionRate.Equal(decimal.NewFromFloat(0.001)))
	assert.True(t, cfg.SlippageRate.Equal(decimal.NewFromFloat(0.0005)))
	assert.True(t, cfg.EquityFraction.Equal(decimal.NewFromFloat(0.95)))
	assert.Zero(t, cfg.Concurrency)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRATA_DB_PATH", "/tmp/candles.db")
	t.Setenv("STRATA_INITIAL_CASH", "50000")
	t.Setenv("STRATA_COMMISSION_RATE", "0.002")
	t.Setenv("STRATA_CONCURRENCY", "8")
	t.Setenv("STRATA_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/candles.db", cfg.DatabasePath)
	assert.True(t, cfg.InitialCash.Equal(decimal.NewFromInt(50_000)))
	assert.True(t, cfg.CommissionRate.Equal(decimal.NewFromFloat(0.002)))
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRATA_INITIAL_CASH", "lots")
	t.Setenv("STRATA_CONCURRENCY", "many")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.InitialCash.Equal(decimal.NewFromInt(100_000)))
	assert.Zero(t, cfg.Concurrency)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRATA_EQUITY_FRACTION", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DatabasePath:   "strata.db",
			InitialCash:    decimal.NewFromInt(100_000),
			CommissionRate: decimal.NewFromFloat(0.001),
			SlippageRate:   decimal.NewFromFloat(0.0005),
			EquityFraction: decimal.NewFromFloat(0.95),
			LogLevel:       "info",
			LogFormat:      "text",
		}
	}
	require.NoError(t, valid().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero initial cash", func(c *Config) { c.InitialCash = decimal.Zero }},
		{"negative commission", func(c *Config) { c.CommissionRate = decimal.NewFromFloat(-0.001) }},
		{"negative slippage", func(c *Config) { c.SlippageRate = decimal.NewFromFloat(-0.0005) }},
		{"zero equity fraction", func(c *Config) { c.EquityFraction = decimal.Zero }},
		{"equity fraction above one", func(c *Config) { c.EquityFraction = decimal.NewFromInt(2) }},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
