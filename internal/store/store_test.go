package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/testutils"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	return s
}

func minuteSeries(t *testing.T, symbol string, closes []float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, len(closes))
	prev := closes[0]
	for i, c := range closes {
		bars[i] = market.Bar{
			Timestamp: testutils.Anchor.Add(time.Duration(i) * time.Minute),
			Open:      decimal.NewFromFloat(prev),
			High:      decimal.NewFromFloat(maxF(prev, c)),
			Low:       decimal.NewFromFloat(minF(prev, c)),
			Close:     decimal.NewFromFloat(c),
			Volume:    decimal.NewFromInt(100),
			Amount:    decimal.NewFromFloat(c * 100),
		}
		prev = c
	}
	series, err := market.NewSeries(symbol, market.Granularity1m, bars)
	require.NoError(t, err)
	return series
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func TestEnsureInstrumentIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.EnsureInstrument(ctx, "AAPL", "Apple")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := s.EnsureInstrument(ctx, "AAPL", "Apple")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestSaveAndLoadDailySeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	series := testutils.Series("AAPL", testutils.RampCloses(30, 100, 1))

	require.NoError(t, s.SaveSeries(ctx, series))

	start, end := testutils.Window(30)
	loaded, err := s.GetBars(ctx, "AAPL", start, end, market.GranularityDaily)
	require.NoError(t, err)

	require.Equal(t, series.Len(), loaded.Len())
	assert.Equal(t, "AAPL", loaded.Symbol)
	assert.Equal(t, market.GranularityDaily, loaded.Granularity)
	for i, bar := range loaded.Bars {
		want := series.Bars[i]
		assert.True(t, bar.Timestamp.Equal(want.Timestamp))
		assert.InDelta(t, want.Close.InexactFloat64(), bar.Close.InexactFloat64(), 1e-9)
		assert.InDelta(t, want.Volume.InexactFloat64(), bar.Volume.InexactFloat64(), 1e-9)
	}
}

func TestSaveSeriesUpsertsExistingBars(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSeries(ctx, testutils.Series("AAPL", testutils.FlatCloses(10, 100))))
	// Second import of the same window with revised closes must overwrite,
	// not duplicate.
	require.NoError(t, s.SaveSeries(ctx, testutils.Series("AAPL", testutils.FlatCloses(10, 105))))

	start, end := testutils.Window(10)
	loaded, err := s.GetBars(ctx, "AAPL", start, end, market.GranularityDaily)
	require.NoError(t, err)

	require.Equal(t, 10, loaded.Len())
	assert.InDelta(t, 105, loaded.Bars[9].Close.InexactFloat64(), 1e-9)
}

func TestGetBarsWindowFiltersRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSeries(ctx, testutils.Series("AAPL", testutils.RampCloses(20, 100, 1))))

	start := testutils.Anchor.AddDate(0, 0, 5)
	end := testutils.Anchor.AddDate(0, 0, 9)
	loaded, err := s.GetBars(ctx, "AAPL", start, end, market.GranularityDaily)
	require.NoError(t, err)

	assert.Equal(t, 5, loaded.Len())
	assert.True(t, loaded.Bars[0].Timestamp.Equal(start))
}

func TestGetBarsUnknownSymbol(t *testing.T) {
	s := openTestStore(t)
	start, end := testutils.Window(10)
	_, err := s.GetBars(context.Background(), "GHOST", start, end, market.GranularityDaily)
	assert.ErrorIs(t, err, market.ErrInstrumentNotFound)
}

func TestGetBarsEmptyWindowReportsStoredRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSeries(ctx, testutils.Series("AAPL", testutils.FlatCloses(10, 100))))

	// Ask for a window entirely after the stored data.
	start := testutils.Anchor.AddDate(1, 0, 0)
	_, err := s.GetBars(ctx, "AAPL", start, start.AddDate(0, 0, 10), market.GranularityDaily)

	var rerr *market.RangeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, "AAPL", rerr.Symbol)
	assert.Equal(t, 10, rerr.HaveBars)
	assert.True(t, rerr.HaveStart.Equal(testutils.Anchor))
	assert.True(t, rerr.HaveEnd.Equal(testutils.Anchor.AddDate(0, 0, 9)))
}

func TestGetBarsEmptyMinuteWindowReportsStoredRange(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveSeries(ctx, minuteSeries(t, "BTC", testutils.RampCloses(10, 100, 0.5))))

	start := testutils.Anchor.Add(2 * time.Hour)
	_, err := s.GetBars(ctx, "BTC", start, start.Add(time.Hour), market.Granularity5m)

	var rerr *market.RangeError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, market.Granularity5m, rerr.Granularity)
	assert.Equal(t, 10, rerr.HaveBars)
	assert.True(t, rerr.HaveStart.Equal(testutils.Anchor))
	assert.True(t, rerr.HaveEnd.Equal(testutils.Anchor.Add(9*time.Minute)))
}

func TestMinuteBarsResampleToWiderGranularity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	series := minuteSeries(t, "BTC", testutils.RampCloses(30, 100, 0.5))
	require.NoError(t, s.SaveSeries(ctx, series))

	start := testutils.Anchor
	end := start.Add(time.Hour)

	asMinute, err := s.GetBars(ctx, "BTC", start, end, market.Granularity1m)
	require.NoError(t, err)
	assert.Equal(t, 30, asMinute.Len())

	asFive, err := s.GetBars(ctx, "BTC", start, end, market.Granularity5m)
	require.NoError(t, err)
	require.Equal(t, 6, asFive.Len())
	assert.Equal(t, market.Granularity5m, asFive.Granularity)
	// First bucket: open of minute 0, close of minute 4.
	assert.InDelta(t, series.Bars[0].Open.InexactFloat64(), asFive.Bars[0].Open.InexactFloat64(), 1e-9)
	assert.InDelta(t, series.Bars[4].Close.InexactFloat64(), asFive.Bars[0].Close.InexactFloat64(), 1e-9)
}

func TestSaveSeriesRejectsWideIntraday(t *testing.T) {
	s := openTestStore(t)
	series := minuteSeries(t, "BTC", testutils.RampCloses(10, 100, 0.5))
	resampled, err := market.Resample(series, market.Granularity5m)
	require.NoError(t, err)

	err = s.SaveSeries(context.Background(), resampled)
	assert.Error(t, err)
}
