package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// RSIThreshold buys when RSI drops below the oversold threshold while flat
// and sells when RSI rises above the overbought threshold while long.
type RSIThreshold struct {
	tracker
	view *View

	period     int
	oversold   float64
	overbought float64

	rsi []float64
}

// Name implements Strategy.
func (s *RSIThreshold) Name() string { return "rsi" }

// Init implements Strategy.
func (s *RSIThreshold) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "period", "oversold", "overbought"); err != nil {
		return err
	}
	s.period = params.Int("period", 14)
	s.oversold = params.Float("oversold", 30)
	s.overbought = params.Float("overbought", 70)
	if s.period <= 0 {
		return fmt.Errorf("strategy %s: period must be positive", s.Name())
	}
	if s.oversold >= s.overbought {
		return fmt.Errorf("strategy %s: oversold %.1f must be below overbought %.1f",
			s.Name(), s.oversold, s.overbought)
	}

	s.view = view
	s.rsi = indicator.RSI(view.CloseSeries(), s.period)
	return nil
}

// MinBars implements Strategy.
func (s *RSIThreshold) MinBars() int {
	return s.period + 1
}

// OnBar implements Strategy.
func (s *RSIThreshold) OnBar(i int) Decision {
	if i < s.MinBars() || !indicator.Defined(s.rsi[i]) {
		return Hold()
	}
	if s.canBuy() && s.rsi[i] < s.oversold {
		return s.submit(Buy())
	}
	if s.canSell() && s.rsi[i] > s.overbought {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *RSIThreshold) Finalize() string {
	return fmt.Sprintf("%s period=%d oversold=%.1f overbought=%.1f",
		s.summary(s.Name()), s.period, s.oversold, s.overbought)
}
