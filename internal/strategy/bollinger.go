package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// BollingerBreakout buys when the close drops below the lower Bollinger band
// and sells when it rises above the upper band.
type BollingerBreakout struct {
	tracker
	view *View

	period    int
	devFactor float64

	upper []float64
	lower []float64
}

// Name implements Strategy.
func (s *BollingerBreakout) Name() string { return "bollinger" }

// Init implements Strategy.
func (s *BollingerBreakout) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "period", "devfactor"); err != nil {
		return err
	}
	s.period = params.Int("period", 20)
	s.devFactor = params.Float("devfactor", 2.0)
	if s.period <= 0 {
		return fmt.Errorf("strategy %s: period must be positive", s.Name())
	}
	if s.devFactor <= 0 {
		return fmt.Errorf("strategy %s: devfactor must be positive", s.Name())
	}

	s.view = view
	s.upper, _, s.lower = indicator.Bollinger(view.CloseSeries(), s.period, s.devFactor)
	return nil
}

// MinBars implements Strategy.
func (s *BollingerBreakout) MinBars() int {
	return s.period
}

// OnBar implements Strategy.
func (s *BollingerBreakout) OnBar(i int) Decision {
	if i < s.MinBars() || !indicator.Defined(s.upper[i]) {
		return Hold()
	}
	close := s.view.Close(i)
	if s.canBuy() && close < s.lower[i] {
		return s.submit(Buy())
	}
	if s.canSell() && close > s.upper[i] {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *BollingerBreakout) Finalize() string {
	return fmt.Sprintf("%s period=%d devfactor=%.1f", s.summary(s.Name()), s.period, s.devFactor)
}
