// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Config holds every runtime setting. Values come from the environment; a
// .env file loaded by the entrypoint feeds the same variables in
// development.
type Config struct {
	// DatabasePath is the SQLite file backing the candle store.
	DatabasePath string

	// InitialCash is the starting balance of every simulated account.
	InitialCash decimal.Decimal

	// CommissionRate is the per-side commission as a fraction of notional.
	CommissionRate decimal.Decimal

	// SlippageRate is the adverse per-side price adjustment.
	SlippageRate decimal.Decimal

	// EquityFraction sizes default buys as a fraction of current equity.
	EquityFraction decimal.Decimal

	// Concurrency bounds the optimizer worker pool. Zero means GOMAXPROCS.
	Concurrency int

	// LogLevel is debug, info, warn or error.
	LogLevel string

	// LogFormat is json or text.
	LogFormat string
}

// Load reads configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:   getEnv("STRATA_DB_PATH", "strata.db"),
		InitialCash:    getEnvDecimal("STRATA_INITIAL_CASH", decimal.NewFromInt(100_000)),
		CommissionRate: getEnvDecimal("STRATA_COMMISSION_RATE", decimal.NewFromFloat(0.001)),
		SlippageRate:   getEnvDecimal("STRATA_SLIPPAGE_RATE", decimal.NewFromFloat(0.0005)),
		EquityFraction: getEnvDecimal("STRATA_EQUITY_FRACTION", decimal.NewFromFloat(0.95)),
		Concurrency:    getEnvInt("STRATA_CONCURRENCY", 0),
		LogLevel:       getEnv("STRATA_LOG_LEVEL", "info"),
		LogFormat:      getEnv("STRATA_LOG_FORMAT", "text"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a meaningful run.
func (c *Config) Validate() error {
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("initial cash %s must be positive", c.InitialCash)
	}
	if c.CommissionRate.IsNegative() {
		return fmt.Errorf("commission rate %s must not be negative", c.CommissionRate)
	}
	if c.SlippageRate.IsNegative() {
		return fmt.Errorf("slippage rate %s must not be negative", c.SlippageRate)
	}
	if !c.EquityFraction.IsPositive() || c.EquityFraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("equity fraction %s must be in (0,1]", c.EquityFraction)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency %d must not be negative", c.Concurrency)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q not recognized", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log format %q not recognized", c.LogFormat)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDecimal(key string, def decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return def
	}
	return d
}
