package market

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Resample aggregates a series into wider fixed-width time buckets:
// open=first, high=max, low=min, close=last, volume=sum, amount=sum.
// Buckets with no input bars are dropped. This is a batch transform; the
// data layer never resamples implicitly.
func Resample(s *Series, target Granularity) (*Series, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("resample: unsupported granularity %q", target)
	}
	width := target.Duration()
	if width <= s.Granularity.Duration() {
		return nil, fmt.Errorf("resample: target %s not wider than source %s", target, s.Granularity)
	}

	var out []Bar
	var cur *Bar
	var bucket int64

	for _, bar := range s.Bars {
		b := bar.Timestamp.UnixNano() / int64(width)
		if cur == nil || b != bucket {
			if cur != nil {
				out = append(out, *cur)
			}
			bucket = b
			opened := Bar{
				Timestamp: bar.Timestamp.Truncate(width),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
				Amount:    bar.Amount,
			}
			cur = &opened
			continue
		}
		cur.High = decimal.Max(cur.High, bar.High)
		cur.Low = decimal.Min(cur.Low, bar.Low)
		cur.Close = bar.Close
		cur.Volume = cur.Volume.Add(bar.Volume)
		cur.Amount = cur.Amount.Add(bar.Amount)
	}
	if cur != nil {
		out = append(out, *cur)
	}

	return NewSeries(s.Symbol, target, out)
}
