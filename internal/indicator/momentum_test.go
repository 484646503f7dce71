package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSIWarmup(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105, 106}
	out := RSI(closes, 3)
	for i := 0; i < 3; i++ {
		assert.False(t, Defined(out[i]), "index %d", i)
	}
	for i := 3; i < len(closes); i++ {
		assert.True(t, Defined(out[i]), "index %d", i)
	}
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	out := RSI(closes, 3)
	for i := 3; i < len(closes); i++ {
		assert.InDelta(t, 100, out[i], 1e-12)
	}
}

func TestRSIAllLossesIsZero(t *testing.T) {
	closes := []float64{105, 104, 103, 102, 101, 100}
	out := RSI(closes, 3)
	for i := 3; i < len(closes); i++ {
		assert.InDelta(t, 0, out[i], 1e-12)
	}
}

func TestRSIBalancedIsFifty(t *testing.T) {
	// Alternating +1/-1 inside any window of even length sums to equal
	// gains and losses.
	closes := []float64{100, 101, 100, 101, 100, 101, 100}
	out := RSI(closes, 2)
	for i := 2; i < len(closes); i++ {
		assert.InDelta(t, 50, out[i], 1e-12)
	}
}

func TestMACDAlignment(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	line, signal, hist := MACD(closes, 12, 26, 9)
	require.Len(t, line, 60)
	require.Len(t, signal, 60)
	require.Len(t, hist, 60)

	// Line defined once the slow EMA is; signal needs a further window.
	assert.False(t, Defined(line[24]))
	assert.True(t, Defined(line[25]))
	assert.False(t, Defined(signal[32]))
	assert.True(t, Defined(signal[33]))
	assert.True(t, Defined(hist[33]))

	for i := range closes {
		if Defined(hist[i]) {
			assert.InDelta(t, line[i]-signal[i], hist[i], 1e-12)
		}
	}
}

func TestStochasticBoundsAndFlat(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 100, 100, 100
	}
	k, d, j := Stochastic(highs, lows, closes, 9, 3)

	// A flat window reads neutral.
	assert.InDelta(t, 50, k[12], 1e-12)
	assert.InDelta(t, 50, d[14], 1e-12)
	assert.InDelta(t, 50, j[14], 1e-12)
}

func TestStochasticRising(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)
		highs[i] = closes[i] + 0.5
		lows[i] = closes[i] - 0.5
	}
	k, _, _ := Stochastic(highs, lows, closes, 5, 3)
	for i := 8; i < n; i++ {
		require.True(t, Defined(k[i]))
		// Close always near the top of the rolling range.
		assert.Greater(t, k[i], 80.0)
	}
}
