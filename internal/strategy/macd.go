package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// MACDCross buys when the MACD line crosses above its signal line and sells
// on the cross below.
type MACDCross struct {
	tracker
	view *View

	fastPeriod   int
	slowPeriod   int
	signalPeriod int

	line   []float64
	signal []float64
}

// Name implements Strategy.
func (s *MACDCross) Name() string { return "macd" }

// Init implements Strategy.
func (s *MACDCross) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "fast_period", "slow_period", "signal_period"); err != nil {
		return err
	}
	s.fastPeriod = params.Int("fast_period", 12)
	s.slowPeriod = params.Int("slow_period", 26)
	s.signalPeriod = params.Int("signal_period", 9)
	if s.fastPeriod <= 0 || s.slowPeriod <= 0 || s.signalPeriod <= 0 {
		return fmt.Errorf("strategy %s: periods must be positive", s.Name())
	}

	s.view = view
	s.line, s.signal, _ = indicator.MACD(view.CloseSeries(), s.fastPeriod, s.slowPeriod, s.signalPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *MACDCross) MinBars() int {
	return s.slowPeriod + s.signalPeriod
}

// OnBar implements Strategy.
func (s *MACDCross) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	if s.canBuy() && indicator.CrossAbove(s.line, s.signal, i) {
		return s.submit(Buy())
	}
	if s.canSell() && indicator.CrossBelow(s.line, s.signal, i) {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *MACDCross) Finalize() string {
	return fmt.Sprintf("%s fast=%d slow=%d signal=%d",
		s.summary(s.Name()), s.fastPeriod, s.slowPeriod, s.signalPeriod)
}
