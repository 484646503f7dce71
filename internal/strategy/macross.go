package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// MACross buys when a fast simple moving average crosses above a slow one
// and sells on the cross below.
type MACross struct {
	tracker
	view *View

	fastPeriod int
	slowPeriod int

	fast []float64
	slow []float64
}

// Name implements Strategy.
func (s *MACross) Name() string { return "macross" }

// Init implements Strategy.
func (s *MACross) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "fast_period", "slow_period"); err != nil {
		return err
	}
	s.fastPeriod = params.Int("fast_period", 5)
	s.slowPeriod = params.Int("slow_period", 20)
	if s.fastPeriod <= 0 || s.slowPeriod <= 0 {
		return fmt.Errorf("strategy %s: periods must be positive", s.Name())
	}

	s.view = view
	closes := view.CloseSeries()
	s.fast = indicator.SMA(closes, s.fastPeriod)
	s.slow = indicator.SMA(closes, s.slowPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *MACross) MinBars() int {
	if s.fastPeriod > s.slowPeriod {
		return s.fastPeriod
	}
	return s.slowPeriod
}

// OnBar implements Strategy.
func (s *MACross) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	if s.canBuy() && indicator.CrossAbove(s.fast, s.slow, i) {
		return s.submit(Buy())
	}
	if s.canSell() && indicator.CrossBelow(s.fast, s.slow, i) {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *MACross) Finalize() string {
	return fmt.Sprintf("%s fast=%d slow=%d", s.summary(s.Name()), s.fastPeriod, s.slowPeriod)
}
