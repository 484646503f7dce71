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
	"github.com/quantfarm/strata/internal/optimize"
	"github.com/quantfarm/strata/internal/store"
)

var (
	symbols      = flag.String("symbols", "", "Comma-separated instrument symbols (required)")
	strategyName = flag.String("strategy", "", "Optimize one strategy only; empty sweeps all")
	startDate    = flag.String("start", "", "Start date YYYY-MM-DD (required)")
	endDate      = flag.String("end", "", "End date YYYY-MM-DD (required)")
	granularity  = flag.String("granularity", "daily", "Bar granularity: daily, 1m, 5m, 15m, 30m, 60m")
	gridsFile    = flag.String("grids", "", "YAML file with parameter-grid overrides")
	concurrency  = flag.Int("concurrency", 0, "Worker count; 0 uses the config/CPU default")
	jsonOut      = flag.String("json", "", "Write full reports as JSON to this path ('-' for stdout)")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logger.WithError(err).Error("optimization failed")
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := newLogger(cfg)
	logger.SetDefault(log)

	if *symbols == "" || *startDate == "" || *endDate == "" {
		return fmt.Errorf("-symbols, -start and -end are required")
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}
	end = end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	grids := optimize.DefaultGrids()
	if *gridsFile != "" {
		grids, err = optimize.LoadGrids(*gridsFile)
		if err != nil {
			return err
		}
	}

	src, err := store.Open(cfg.DatabasePath, log)
	if err != nil {
		return err
	}

	workers := cfg.Concurrency
	if *concurrency > 0 {
		workers = *concurrency
	}
	engine := backtest.NewEngine(src, log)
	opt := optimize.New(engine, optimize.Options{
		Grids:       grids,
		Concurrency: workers,
		Broker: broker.Config{
			InitialCash:    cfg.InitialCash,
			CommissionRate: cfg.CommissionRate,
			SlippageRate:   cfg.SlippageRate,
			EquityFraction: cfg.EquityFraction,
		},
	}, log)

	ctx := context.Background()
	gran := market.Granularity(*granularity)
	symbolList := splitSymbols(*symbols)

	if *strategyName != "" {
		return optimizeOne(ctx, opt, symbolList, start, end, gran)
	}

	started := time.Now()
	reports, err := opt.BatchOptimize(ctx, symbolList, start, end, gran)
	if err != nil {
		return err
	}
	log.Info("batch optimization complete",
		"symbols", len(reports), "elapsed", time.Since(started).Round(time.Millisecond))

	for _, report := range reports {
		printSummary(report.Symbol, report.ValidResults, report.TotalCombinations,
			report.BestByReturn, report.BestBySharpe, report.BestByAnnual)
	}
	if *jsonOut != "" {
		return writeJSON(*jsonOut, reports)
	}
	return nil
}

func optimizeOne(ctx context.Context, opt *optimize.Optimizer, symbolList []string, start, end time.Time, gran market.Granularity) error {
	var reports []*optimize.StrategyReport
	for _, symbol := range symbolList {
		report, err := opt.OptimizeStrategy(ctx, optimize.RunSpec{
			Symbol:      symbol,
			Start:       start,
			End:         end,
			Granularity: gran,
		}, *strategyName)
		if err != nil {
			return err
		}
		reports = append(reports, report)
		printSummary(report.Symbol, report.ValidResults, report.TotalCombinations,
			report.BestByReturn, report.BestBySharpe, report.BestByAnnual)
	}
	if *jsonOut != "" {
		return writeJSON(*jsonOut, reports)
	}
	return nil
}

func printSummary(symbol string, valid, total int, byReturn, bySharpe, byAnnual *backtest.Result) {
	fmt.Printf("\n%s  (%d/%d runs valid)\n", symbol, valid, total)
	printBest("  best by return: ", byReturn)
	printBest("  best by sharpe: ", bySharpe)
	printBest("  best by annual: ", byAnnual)
}

func printBest(label string, r *backtest.Result) {
	if r == nil {
		fmt.Println(label + "n/a")
		return
	}
	sharpe := "n/a"
	if r.SharpeRatio != nil {
		sharpe = fmt.Sprintf("%.3f", *r.SharpeRatio)
	}
	fmt.Printf("%s%s %v  return=%.2f%% annual=%.2f%% sharpe=%s trades=%d\n",
		label, r.Strategy, r.Params, r.TotalReturnPct, r.AnnualReturnPct, sharpe, r.TotalTrades)
}

func splitSymbols(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
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
		return fmt.Errorf("marshal reports: %w", err)
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
