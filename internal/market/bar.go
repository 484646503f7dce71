package market

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Granularity identifies the time bucket of a bar series.
type Granularity string

const (
	GranularityDaily Granularity = "daily"
	Granularity1m    Granularity = "1m"
	Granularity5m    Granularity = "5m"
	Granularity15m   Granularity = "15m"
	Granularity30m   Granularity = "30m"
	Granularity60m   Granularity = "60m"
)

// Granularities lists every supported granularity.
var Granularities = []Granularity{
	GranularityDaily,
	Granularity1m,
	Granularity5m,
	Granularity15m,
	Granularity30m,
	Granularity60m,
}

// Valid reports whether g is a supported granularity.
func (g Granularity) Valid() bool {
	for _, known := range Granularities {
		if g == known {
			return true
		}
	}
	return false
}

// Duration returns the bucket width. Daily bars use 24h.
func (g Granularity) Duration() time.Duration {
	switch g {
	case Granularity1m:
		return time.Minute
	case Granularity5m:
		return 5 * time.Minute
	case Granularity15m:
		return 15 * time.Minute
	case Granularity30m:
		return 30 * time.Minute
	case Granularity60m:
		return 60 * time.Minute
	default:
		return 24 * time.Hour
	}
}

// DateFormat returns the date-string layout used when rendering bars of this
// granularity in results and reports.
func (g Granularity) DateFormat() string {
	if g == GranularityDaily {
		return "2006-01-02"
	}
	return "2006-01-02 15:04"
}

// Bar is one OHLCV observation for a fixed time bucket. Bars are immutable
// once loaded; a series is read-only input to a backtest run.
type Bar struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
	Amount    decimal.Decimal
}

// Validate checks the OHLCV invariants:
// high >= max(open, close), min(open, close) >= low, low >= 0, volume >= 0.
func (b Bar) Validate() error {
	if b.Timestamp.IsZero() {
		return fmt.Errorf("bar has zero timestamp")
	}
	if b.Low.IsNegative() {
		return fmt.Errorf("bar %s: low %s is negative", b.Timestamp.Format(time.RFC3339), b.Low)
	}
	if b.Volume.IsNegative() {
		return fmt.Errorf("bar %s: volume %s is negative", b.Timestamp.Format(time.RFC3339), b.Volume)
	}
	upper := decimal.Max(b.Open, b.Close)
	lower := decimal.Min(b.Open, b.Close)
	if b.High.LessThan(upper) {
		return fmt.Errorf("bar %s: high %s below body top %s", b.Timestamp.Format(time.RFC3339), b.High, upper)
	}
	if b.Low.GreaterThan(lower) {
		return fmt.Errorf("bar %s: low %s above body bottom %s", b.Timestamp.Format(time.RFC3339), b.Low, lower)
	}
	return nil
}
