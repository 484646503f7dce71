package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// PyramidAdd scales into winners. The initial entry requires the close above
// its moving average plus a gap-up open; each further add fires when the
// close advances a threshold fraction beyond the most recent entry. The
// trailing stop (from the running high) is checked before the hard stop
// (from the first entry); either one closes the whole position.
type PyramidAdd struct {
	tracker
	view *View

	initialSize       float64
	stopLossPct       float64
	addThreshold      float64
	maPeriod          int
	highOpenThreshold float64

	ma []float64
}

// Name implements Strategy.
func (s *PyramidAdd) Name() string { return "pyramid_add" }

// Init implements Strategy.
func (s *PyramidAdd) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(),
		"initial_position_size", "stop_loss_pct", "add_position_threshold",
		"ma_period", "high_open_threshold"); err != nil {
		return err
	}
	s.initialSize = params.Float("initial_position_size", 0.05)
	s.stopLossPct = params.Float("stop_loss_pct", 0.02)
	s.addThreshold = params.Float("add_position_threshold", 0.02)
	s.maPeriod = params.Int("ma_period", 20)
	s.highOpenThreshold = params.Float("high_open_threshold", 0.01)
	if s.initialSize <= 0 || s.initialSize > 1 {
		return fmt.Errorf("strategy %s: initial_position_size must be in (0,1]", s.Name())
	}
	if s.stopLossPct <= 0 || s.addThreshold <= 0 {
		return fmt.Errorf("strategy %s: stop_loss_pct and add_position_threshold must be positive", s.Name())
	}
	if s.maPeriod <= 0 {
		return fmt.Errorf("strategy %s: ma_period must be positive", s.Name())
	}

	s.view = view
	s.ma = indicator.SMA(view.CloseSeries(), s.maPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *PyramidAdd) MinBars() int {
	return s.maPeriod
}

// OnBar implements Strategy.
func (s *PyramidAdd) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	close := s.view.Close(i)
	s.observe(close)

	if s.inPosition {
		if s.pending {
			return Hold()
		}
		// The trailing stop uses twice the per-entry stop distance and is
		// evaluated before the hard stop so a run-up that gives back is
		// closed off the high, not off the first entry.
		if close <= s.highWater*(1-2*s.stopLossPct) {
			return s.submit(Sell())
		}
		if close <= s.firstEntry()*(1-s.stopLossPct) {
			return s.submit(Sell())
		}
		if close >= s.lastEntry()*(1+s.addThreshold) {
			return s.submit(BuyFraction(s.initialSize))
		}
		return Hold()
	}

	if !s.canBuy() || !indicator.Defined(s.ma[i]) {
		return Hold()
	}
	gapUp := s.view.Open(i) >= s.view.Close(i-1)*(1+s.highOpenThreshold)
	if close > s.ma[i] && gapUp {
		return s.submit(BuyFraction(s.initialSize))
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *PyramidAdd) Finalize() string {
	return fmt.Sprintf("%s size=%.2f stop=%.3f add=%.3f ma=%d gap=%.3f entries=%d",
		s.summary(s.Name()), s.initialSize, s.stopLossPct, s.addThreshold,
		s.maPeriod, s.highOpenThreshold, len(s.entries))
}
