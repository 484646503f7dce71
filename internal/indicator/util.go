// Package indicator provides pure, stateless rolling statistics over price
// and volume arrays. Every function returns arrays aligned with its input:
// element i is computed from a trailing window ending at i, and elements
// inside the warm-up window are NaN. Strategies must treat NaN as "no
// signal". No function looks ahead of index i.
package indicator

import (
	"math"

	"github.com/quantfarm/strata/internal/market"
)

// Closes extracts the close prices of a bar slice as float64.
func Closes(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// Opens extracts the open prices of a bar slice as float64.
func Opens(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Open.InexactFloat64()
	}
	return out
}

// Highs extracts the high prices of a bar slice as float64.
func Highs(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.High.InexactFloat64()
	}
	return out
}

// Lows extracts the low prices of a bar slice as float64.
func Lows(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Low.InexactFloat64()
	}
	return out
}

// Volumes extracts the volumes of a bar slice as float64.
func Volumes(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume.InexactFloat64()
	}
	return out
}

// nans returns a slice of n NaN values.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Defined reports whether v is a usable indicator value (not NaN, not Inf).
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CrossAbove reports whether series a crossed above series b between bars
// i-1 and i. A crossover involving any undefined value is ignored rather
// than treated as zero.
func CrossAbove(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if !Defined(a[i-1]) || !Defined(b[i-1]) || !Defined(a[i]) || !Defined(b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// CrossBelow reports whether series a crossed below series b between bars
// i-1 and i.
func CrossBelow(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if !Defined(a[i-1]) || !Defined(b[i-1]) || !Defined(a[i]) || !Defined(b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}
