package market

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/quantfarm/strata/internal/logger"
)

// Series is an ordered, deduplicated sequence of bars for one symbol at one
// granularity. It is read-only once built and safe to share across runs.
type Series struct {
	Symbol      string
	Granularity Granularity
	Bars        []Bar
}

// NewSeries builds a series from raw bars: sorts chronologically, drops
// duplicate timestamps (first occurrence wins) and validates every bar.
// An empty input is rejected with ErrDataUnavailable.
func NewSeries(symbol string, granularity Granularity, bars []Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("series %s/%s: %w", symbol, granularity, ErrDataUnavailable)
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	deduped := sorted[:0]
	var last time.Time
	for _, bar := range sorted {
		if !last.IsZero() && bar.Timestamp.Equal(last) {
			continue
		}
		if err := bar.Validate(); err != nil {
			return nil, fmt.Errorf("series %s/%s: %w", symbol, granularity, err)
		}
		deduped = append(deduped, bar)
		last = bar.Timestamp
	}

	return &Series{
		Symbol:      symbol,
		Granularity: granularity,
		Bars:        deduped,
	}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.Bars)
}

// Start returns the timestamp of the first bar.
func (s *Series) Start() time.Time {
	return s.Bars[0].Timestamp
}

// End returns the timestamp of the last bar.
func (s *Series) End() time.Time {
	return s.Bars[len(s.Bars)-1].Timestamp
}

// Slice returns a new series restricted to the inclusive time range.
// The result shares the underlying bar storage.
func (s *Series) Slice(start, end time.Time) (*Series, error) {
	lo := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Timestamp.Before(start)
	})
	hi := sort.Search(len(s.Bars), func(i int) bool {
		return s.Bars[i].Timestamp.After(end)
	})
	if lo >= hi {
		return nil, &RangeError{
			Symbol:      s.Symbol,
			Granularity: s.Granularity,
			Start:       start,
			End:         end,
			HaveStart:   s.Start(),
			HaveEnd:     s.End(),
			HaveBars:    len(s.Bars),
		}
	}
	return &Series{
		Symbol:      s.Symbol,
		Granularity: s.Granularity,
		Bars:        s.Bars[lo:hi],
	}, nil
}

// ClipEnd clamps an end boundary that lies in the future to now. Clipping is
// surfaced with a warning rather than silently changing caller expectations.
func ClipEnd(end time.Time, log *logger.Logger) time.Time {
	now := time.Now()
	if end.After(now) {
		if log == nil {
			log = logger.Default()
		}
		log.Warn("end boundary in the future, clipping to now",
			"requested_end", end.Format(time.RFC3339),
			"clipped_end", now.Format(time.RFC3339))
		return now
	}
	return end
}

// BarSource produces bars for a symbol and inclusive time range. It is the
// seam to the external storage layer: implementations must fail with
// ErrInstrumentNotFound for unknown symbols and ErrDataUnavailable (ideally a
// *RangeError) for empty results, never silently return zero rows.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, start, end time.Time, granularity Granularity) (*Series, error)
}
