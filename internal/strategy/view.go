package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
	"github.com/quantfarm/strata/internal/market"
)

// View gives a strategy random access into the bar sequence by absolute
// index, with index 0 as the run's first bar. The engine advances a cursor
// as the simulation proceeds; any access beyond the cursor is a look-ahead
// and panics — this is a hard invariant of the run, not a recoverable
// condition.
//
// The full price arrays are exposed once, for Init-time indicator
// precomputation: every indicator in this repository uses trailing windows
// only, so element i of a precomputed series depends only on bars <= i.
type View struct {
	bars    []market.Bar
	opens   []float64
	highs   []float64
	lows    []float64
	closes  []float64
	volumes []float64
	cursor  int
}

// NewView wraps a bar slice. The cursor starts before the first bar.
func NewView(bars []market.Bar) *View {
	return &View{
		bars:    bars,
		opens:   indicator.Opens(bars),
		highs:   indicator.Highs(bars),
		lows:    indicator.Lows(bars),
		closes:  indicator.Closes(bars),
		volumes: indicator.Volumes(bars),
		cursor:  -1,
	}
}

// Len returns the total number of bars in the run.
func (v *View) Len() int {
	return len(v.bars)
}

// Advance moves the cursor to bar i. Called by the engine only.
func (v *View) Advance(i int) {
	v.cursor = i
}

// Cursor returns the index of the bar currently being simulated.
func (v *View) Cursor() int {
	return v.cursor
}

func (v *View) guard(i int) {
	if i < 0 || i >= len(v.bars) {
		panic(fmt.Sprintf("strategy: bar index %d out of range [0,%d)", i, len(v.bars)))
	}
	if i > v.cursor {
		panic(fmt.Sprintf("strategy: look-ahead access to bar %d at cursor %d", i, v.cursor))
	}
}

// Bar returns bar i. Panics on look-ahead.
func (v *View) Bar(i int) market.Bar {
	v.guard(i)
	return v.bars[i]
}

// Open returns the open price of bar i. Panics on look-ahead.
func (v *View) Open(i int) float64 {
	v.guard(i)
	return v.opens[i]
}

// High returns the high price of bar i. Panics on look-ahead.
func (v *View) High(i int) float64 {
	v.guard(i)
	return v.highs[i]
}

// Low returns the low price of bar i. Panics on look-ahead.
func (v *View) Low(i int) float64 {
	v.guard(i)
	return v.lows[i]
}

// Close returns the close price of bar i. Panics on look-ahead.
func (v *View) Close(i int) float64 {
	v.guard(i)
	return v.closes[i]
}

// Volume returns the volume of bar i. Panics on look-ahead.
func (v *View) Volume(i int) float64 {
	v.guard(i)
	return v.volumes[i]
}

// Series accessors for Init-time precomputation of trailing-window
// indicators. OnBar code must index the derived arrays at or below the
// current bar only.

// OpenSeries returns the full open-price array.
func (v *View) OpenSeries() []float64 { return v.opens }

// HighSeries returns the full high-price array.
func (v *View) HighSeries() []float64 { return v.highs }

// LowSeries returns the full low-price array.
func (v *View) LowSeries() []float64 { return v.lows }

// CloseSeries returns the full close-price array.
func (v *View) CloseSeries() []float64 { return v.closes }

// VolumeSeries returns the full volume array.
func (v *View) VolumeSeries() []float64 { return v.volumes }
