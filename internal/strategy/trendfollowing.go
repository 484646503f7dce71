package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// TrendFollowing enters when the fast moving average is above the slow one,
// ADX confirms trend strength and the close sits above the fast average. It
// exits on a moving-average reversal, a trailing stop from the running high
// or ADX decaying below 80% of its entry threshold.
type TrendFollowing struct {
	tracker
	view *View

	fastPeriod   int
	slowPeriod   int
	adxPeriod    int
	adxThreshold float64
	trailingStop float64

	fast []float64
	slow []float64
	adx  []float64
}

// Name implements Strategy.
func (s *TrendFollowing) Name() string { return "trend_following" }

// Init implements Strategy.
func (s *TrendFollowing) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(),
		"fast_period", "slow_period", "adx_period", "adx_threshold", "trailing_stop"); err != nil {
		return err
	}
	s.fastPeriod = params.Int("fast_period", 10)
	s.slowPeriod = params.Int("slow_period", 30)
	s.adxPeriod = params.Int("adx_period", 14)
	s.adxThreshold = params.Float("adx_threshold", 25)
	s.trailingStop = params.Float("trailing_stop", 0.03)
	if s.fastPeriod <= 0 || s.slowPeriod <= 0 || s.adxPeriod <= 0 {
		return fmt.Errorf("strategy %s: periods must be positive", s.Name())
	}
	if s.trailingStop <= 0 || s.trailingStop >= 1 {
		return fmt.Errorf("strategy %s: trailing_stop must be in (0,1)", s.Name())
	}

	s.view = view
	closes := view.CloseSeries()
	s.fast = indicator.SMA(closes, s.fastPeriod)
	s.slow = indicator.SMA(closes, s.slowPeriod)
	s.adx = indicator.ADX(view.HighSeries(), view.LowSeries(), closes, s.adxPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *TrendFollowing) MinBars() int {
	min := s.slowPeriod
	if adx := 2 * s.adxPeriod; adx > min {
		min = adx
	}
	return min
}

// OnBar implements Strategy.
func (s *TrendFollowing) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	close := s.view.Close(i)
	s.observe(close)

	if s.canSell() {
		switch {
		case indicator.Defined(s.fast[i]) && indicator.Defined(s.slow[i]) && s.fast[i] < s.slow[i]:
			return s.submit(Sell())
		case close <= s.highWater*(1-s.trailingStop):
			return s.submit(Sell())
		case indicator.Defined(s.adx[i]) && s.adx[i] < 0.8*s.adxThreshold:
			return s.submit(Sell())
		}
		return Hold()
	}

	if !s.canBuy() {
		return Hold()
	}
	if !indicator.Defined(s.fast[i]) || !indicator.Defined(s.slow[i]) || !indicator.Defined(s.adx[i]) {
		return Hold()
	}
	if s.fast[i] > s.slow[i] && s.adx[i] > s.adxThreshold && close > s.fast[i] {
		return s.submit(Buy())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *TrendFollowing) Finalize() string {
	return fmt.Sprintf("%s fast=%d slow=%d adx=%d threshold=%.1f trailing=%.3f",
		s.summary(s.Name()), s.fastPeriod, s.slowPeriod, s.adxPeriod, s.adxThreshold, s.trailingStop)
}
