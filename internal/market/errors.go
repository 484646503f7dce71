package market

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the data layer. Callers match them with errors.Is.
var (
	// ErrInstrumentNotFound means the symbol is unknown to the data source.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrDataUnavailable means the requested range contains no bars.
	ErrDataUnavailable = errors.New("no bar data available")
)

// RangeError wraps ErrDataUnavailable with the range that was requested and
// the range the source actually holds, so callers can correct their request.
type RangeError struct {
	Symbol      string
	Granularity Granularity
	Start, End  time.Time
	HaveStart   time.Time
	HaveEnd     time.Time
	HaveBars    int
}

func (e *RangeError) Error() string {
	layout := e.Granularity.DateFormat()
	if e.HaveBars == 0 {
		return fmt.Sprintf("no %s bars for %s in %s..%s: %v",
			e.Granularity, e.Symbol, e.Start.Format(layout), e.End.Format(layout), ErrDataUnavailable)
	}
	return fmt.Sprintf("no %s bars for %s in %s..%s (available: %s..%s, %d bars): %v",
		e.Granularity, e.Symbol, e.Start.Format(layout), e.End.Format(layout),
		e.HaveStart.Format(layout), e.HaveEnd.Format(layout), e.HaveBars, ErrDataUnavailable)
}

func (e *RangeError) Unwrap() error {
	return ErrDataUnavailable
}
