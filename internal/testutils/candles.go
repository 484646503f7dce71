// Package testutils provides shared utilities for testing: synthetic candle
// series with known shapes and an in-memory bar source.
package testutils

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfarm/strata/internal/market"
)

// Anchor is the first timestamp of every generated series.
var Anchor = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// BarsFromCloses builds valid daily bars around a close path: each bar opens
// at the previous close, and high/low bracket the body by a small margin.
func BarsFromCloses(closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		open := prev
		high := open
		if c > high {
			high = c
		}
		low := open
		if c < low {
			low = c
		}
		bars[i] = market.Bar{
			Timestamp: Anchor.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high * 1.001),
			Low:       decimal.NewFromFloat(low * 0.999),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromInt(10_000),
			Amount:    decimal.NewFromFloat(c * 10_000),
		}
		prev = c
	}
	return bars
}

// FlatCloses returns n identical closes.
func FlatCloses(n int, price float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}
	return closes
}

// RampCloses returns n closes rising by step per bar.
func RampCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

// DipAndRipCloses holds flat, drops sharply, then recovers above the
// starting level. The drop bottoms out at base*(1-depth).
func DipAndRipCloses(flat, dip, rip int, base, depth float64) []float64 {
	closes := make([]float64, 0, flat+dip+rip)
	for i := 0; i < flat; i++ {
		closes = append(closes, base)
	}
	bottom := base * (1 - depth)
	for i := 1; i <= dip; i++ {
		closes = append(closes, base-(base-bottom)*float64(i)/float64(dip))
	}
	top := base * (1 + depth)
	for i := 1; i <= rip; i++ {
		closes = append(closes, bottom+(top-bottom)*float64(i)/float64(rip))
	}
	return closes
}

// Series wraps closes into a daily series for a symbol.
func Series(symbol string, closes []float64) *market.Series {
	s, err := market.NewSeries(symbol, market.GranularityDaily, BarsFromCloses(closes))
	if err != nil {
		panic(fmt.Sprintf("testutils: invalid series: %v", err))
	}
	return s
}

// Source is an in-memory market.BarSource for tests.
type Source struct {
	series map[string]*market.Series
}

// NewSource builds a source over the given series, keyed by symbol.
func NewSource(series ...*market.Series) *Source {
	src := &Source{series: make(map[string]*market.Series, len(series))}
	for _, s := range series {
		src.series[s.Symbol] = s
	}
	return src
}

// GetBars implements market.BarSource.
func (s *Source) GetBars(_ context.Context, symbol string, start, end time.Time, granularity market.Granularity) (*market.Series, error) {
	held, ok := s.series[symbol]
	if !ok {
		return nil, fmt.Errorf("symbol %q: %w", symbol, market.ErrInstrumentNotFound)
	}
	if held.Granularity != granularity {
		return nil, &market.RangeError{
			Symbol:      symbol,
			Granularity: granularity,
			Start:       start,
			End:         end,
		}
	}
	return held.Slice(start, end)
}

// Window returns a start/end pair covering every generated bar.
func Window(n int) (time.Time, time.Time) {
	return Anchor, Anchor.AddDate(0, 0, n)
}
