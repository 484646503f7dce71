package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// MeanReversion buys when the close deviates below its moving average by more
// than a threshold fraction and sells when it deviates above by the same
// amount.
type MeanReversion struct {
	tracker
	view *View

	period    int
	threshold float64

	ma []float64
}

// Name implements Strategy.
func (s *MeanReversion) Name() string { return "mean_reversion" }

// Init implements Strategy.
func (s *MeanReversion) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(), "period", "threshold"); err != nil {
		return err
	}
	s.period = params.Int("period", 20)
	s.threshold = params.Float("threshold", 0.02)
	if s.period <= 0 {
		return fmt.Errorf("strategy %s: period must be positive", s.Name())
	}
	if s.threshold <= 0 {
		return fmt.Errorf("strategy %s: threshold must be positive", s.Name())
	}

	s.view = view
	s.ma = indicator.SMA(view.CloseSeries(), s.period)
	return nil
}

// MinBars implements Strategy.
func (s *MeanReversion) MinBars() int {
	return s.period
}

// OnBar implements Strategy.
func (s *MeanReversion) OnBar(i int) Decision {
	if i < s.MinBars() || !indicator.Defined(s.ma[i]) || s.ma[i] == 0 {
		return Hold()
	}
	deviation := (s.view.Close(i) - s.ma[i]) / s.ma[i]
	if s.canBuy() && deviation < -s.threshold {
		return s.submit(Buy())
	}
	if s.canSell() && deviation > s.threshold {
		return s.submit(Sell())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *MeanReversion) Finalize() string {
	return fmt.Sprintf("%s period=%d threshold=%.3f", s.summary(s.Name()), s.period, s.threshold)
}
