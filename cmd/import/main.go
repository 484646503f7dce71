// Command import loads CSV candle files into the SQLite store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/quantfarm/strata/internal/config"
	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/store"
)

var (
	symbol      = flag.String("symbol", "", "Instrument symbol (required)")
	name        = flag.String("name", "", "Instrument display name")
	csvFile     = flag.String("csv", "", "CSV file with candles (required)")
	granularity = flag.String("granularity", "daily", "Granularity of the file: daily or 1m")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logger.WithError(err).Error("import failed")
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if *symbol == "" || *csvFile == "" {
		return fmt.Errorf("-symbol and -csv are required")
	}
	gran := market.Granularity(*granularity)
	if gran != market.GranularityDaily && gran != market.Granularity1m {
		return fmt.Errorf("granularity %q not storable, use daily or 1m", gran)
	}

	series, err := market.LoadCSV(*csvFile, *symbol, gran)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.DatabasePath, logger.Default())
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := db.EnsureInstrument(ctx, *symbol, *name); err != nil {
		return err
	}
	if err := db.SaveSeries(ctx, series); err != nil {
		return err
	}

	fmt.Printf("imported %d %s bars for %s (%s .. %s)\n",
		series.Len(), gran, *symbol,
		series.Start().Format(gran.DateFormat()), series.End().Format(gran.DateFormat()))
	return nil
}
