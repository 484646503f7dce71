package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/quantfarm/strata/internal/backtest"
	"github.com/quantfarm/strata/internal/broker"
	"github.com/quantfarm/strata/internal/config"
	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/store"
	"github.com/quantfarm/strata/internal/strategy"
)

var (
	symbol       = flag.String("symbol", "", "Instrument symbol (required)")
	strategyName = flag.String("strategy", "macross", "Strategy name")
	paramsJSON   = flag.String("params", "", "Strategy parameters as JSON, e.g. '{\"fast_period\":5}'")
	startDate    = flag.String("start", "", "Start date YYYY-MM-DD (required)")
	endDate      = flag.String("end", "", "End date YYYY-MM-DD (required)")
	granularity  = flag.String("granularity", "daily", "Bar granularity: daily, 1m, 5m, 15m, 30m, 60m")

	csvFile  = flag.String("csv", "", "Load bars from a CSV file instead of the database")
	fillNext = flag.Bool("fill-next-open", false, "Fill orders at the next bar open instead of the signal bar close")
	jsonOut  = flag.String("json", "", "Write the full result as JSON to this path ('-' for stdout)")
	listOnly = flag.Bool("list", false, "List available strategies and exit")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logger.WithError(err).Error("backtest failed")
		os.Exit(1)
	}
}

func run() error {
	if *listOnly {
		fmt.Println(strings.Join(strategy.Names(), "\n"))
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	logger.SetDefault(log)

	if *symbol == "" || *startDate == "" || *endDate == "" {
		return fmt.Errorf("-symbol, -start and -end are required")
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}

	params := strategy.Params{}
	if *paramsJSON != "" {
		if err := json.Unmarshal([]byte(*paramsJSON), &params); err != nil {
			return fmt.Errorf("parse -params: %w", err)
		}
	}

	source, err := openSource(cfg, log)
	if err != nil {
		return err
	}

	brokerCfg := brokerConfig(cfg)
	if *fillNext {
		brokerCfg.FillPolicy = broker.FillOnNextOpen
	}

	engine := backtest.NewEngine(source, log)
	result, err := engine.Run(context.Background(), backtest.Request{
		Symbol:      *symbol,
		Strategy:    *strategyName,
		Params:      params,
		Start:       start,
		End:         end.AddDate(0, 0, 1).Add(-time.Nanosecond),
		Granularity: market.Granularity(*granularity),
		Broker:      brokerCfg,
	})
	if err != nil {
		return err
	}

	fmt.Println(backtest.RenderReport(result))

	if *jsonOut != "" {
		return writeJSON(*jsonOut, result)
	}
	return nil
}

func openSource(cfg *config.Config, log *logger.Logger) (market.BarSource, error) {
	if *csvFile != "" {
		return market.NewCSVSource(market.Granularity(*granularity), map[string]string{
			*symbol: *csvFile,
		}), nil
	}
	return store.Open(cfg.DatabasePath, log)
}

func brokerConfig(cfg *config.Config) broker.Config {
	return broker.Config{
		InitialCash:    cfg.InitialCash,
		CommissionRate: cfg.CommissionRate,
		SlippageRate:   cfg.SlippageRate,
		EquityFraction: cfg.EquityFraction,
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return logger.New(&logger.Config{Level: level, Format: cfg.LogFormat})
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
