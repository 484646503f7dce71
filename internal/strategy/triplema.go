package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// TripleMA trades the alignment of three moving averages: it buys when the
// fast average sits above the mid and the mid above the slow, and sells as
// soon as either ordering breaks (fast below mid, or mid below slow).
type TripleMA struct {
	tracker
	view *View

	fastPeriod int
	midPeriod  int
	slowPeriod int

	fast []float64
	mid  []float64
	slow []float64
}

// Name implements Strategy.
func (s *TripleMA) Name() string { return "triple_ma" }

// Init implements Strategy.
func (s *TripleMA) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "fast_period", "mid_period", "slow_period"); err != nil {
		return err
	}
	s.fastPeriod = params.Int("fast_period", 5)
	s.midPeriod = params.Int("mid_period", 10)
	s.slowPeriod = params.Int("slow_period", 20)
	if s.fastPeriod <= 0 || s.midPeriod <= 0 || s.slowPeriod <= 0 {
		return fmt.Errorf("strategy %s: periods must be positive", s.Name())
	}

	s.view = view
	closes := view.CloseSeries()
	s.fast = indicator.SMA(closes, s.fastPeriod)
	s.mid = indicator.SMA(closes, s.midPeriod)
	s.slow = indicator.SMA(closes, s.slowPeriod)
	return nil
}

// MinBars implements Strategy.
func (s *TripleMA) MinBars() int {
	min := s.fastPeriod
	if s.midPeriod > min {
		min = s.midPeriod
	}
	if s.slowPeriod > min {
		min = s.slowPeriod
	}
	return min
}

// OnBar implements Strategy.
func (s *TripleMA) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	fast, mid, slow := s.fast[i], s.mid[i], s.slow[i]
	if !indicator.Defined(fast) || !indicator.Defined(mid) || !indicator.Defined(slow) {
		return Hold()
	}
	if s.canBuy() && fast > mid && mid > slow {
		return s.submit(Buy())
	}
	if s.canSell() && (fast < mid || mid < slow) {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *TripleMA) Finalize() string {
	return fmt.Sprintf("%s fast=%d mid=%d slow=%d",
		s.summary(s.Name()), s.fastPeriod, s.midPeriod, s.slowPeriod)
}
