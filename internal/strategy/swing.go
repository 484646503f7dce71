package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// Swing buys pullbacks inside an uptrend: the short moving average must sit
// above the long one, and the close must either touch the recent swing low or
// retrace a minimum fraction from the recent swing high. Exits fire in order:
// profit target, stop-loss, trend reversal, then the retest of the prior
// swing high.
type Swing struct {
	tracker
	view *View

	trendPeriod   int
	swingPeriod   int
	pullbackRatio float64
	profitTarget  float64
	stopLoss      float64

	fast      []float64
	slow      []float64
	swingHigh []float64
	swingLow  []float64
}

// Name implements Strategy.
func (s *Swing) Name() string { return "swing" }

// Init implements Strategy.
func (s *Swing) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(),
		"trend_period", "swing_period", "pullback_ratio", "profit_target", "stop_loss"); err != nil {
		return err
	}
	s.trendPeriod = params.Int("trend_period", 20)
	s.swingPeriod = params.Int("swing_period", 10)
	s.pullbackRatio = params.Float("pullback_ratio", 0.05)
	s.profitTarget = params.Float("profit_target", 0.10)
	s.stopLoss = params.Float("stop_loss", 0.05)
	if s.trendPeriod <= 0 || s.swingPeriod <= 0 {
		return fmt.Errorf("strategy %s: periods must be positive", s.Name())
	}
	if s.swingPeriod >= s.trendPeriod {
		return fmt.Errorf("strategy %s: swing_period %d must be below trend_period %d",
			s.Name(), s.swingPeriod, s.trendPeriod)
	}

	s.view = view
	closes := view.CloseSeries()
	s.fast = indicator.SMA(closes, s.swingPeriod)
	s.slow = indicator.SMA(closes, s.trendPeriod)
	s.swingHigh = indicator.Highest(view.HighSeries(), s.swingPeriod)
	s.swingLow = indicator.Lowest(view.LowSeries(), s.swingPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *Swing) MinBars() int {
	return s.trendPeriod
}

// OnBar implements Strategy.
func (s *Swing) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	close := s.view.Close(i)

	if s.canSell() {
		entry := s.firstEntry()
		switch {
		case close >= entry*(1+s.profitTarget):
			return s.submit(Sell())
		case close <= entry*(1-s.stopLoss):
			return s.submit(Sell())
		case indicator.Defined(s.fast[i]) && indicator.Defined(s.slow[i]) && s.fast[i] < s.slow[i]:
			return s.submit(Sell())
		case indicator.Defined(s.swingHigh[i-1]) && close >= s.swingHigh[i-1]:
			return s.submit(Sell())
		}
		return Hold()
	}

	if !s.canBuy() {
		return Hold()
	}
	if !indicator.Defined(s.fast[i]) || !indicator.Defined(s.slow[i]) ||
		!indicator.Defined(s.swingHigh[i-1]) || !indicator.Defined(s.swingLow[i-1]) {
		return Hold()
	}
	if s.fast[i] <= s.slow[i] {
		return Hold()
	}
	nearSwingLow := close <= s.swingLow[i-1]*1.02
	pulledBack := s.swingHigh[i-1] > 0 &&
		(s.swingHigh[i-1]-close)/s.swingHigh[i-1] >= s.pullbackRatio
	if nearSwingLow || pulledBack {
		return s.submit(Buy())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *Swing) Finalize() string {
	return fmt.Sprintf("%s trend=%d swing=%d pullback=%.2f target=%.2f stop=%.2f",
		s.summary(s.Name()), s.trendPeriod, s.swingPeriod, s.pullbackRatio, s.profitTarget, s.stopLoss)
}
