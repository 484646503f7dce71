package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// VCP trades volatility contraction patterns: it waits for recent volatility
// to contract well below its historic level while volume dries up, then buys
// the breakout above the prior lookback high. Exits are a fixed stop from the
// entry price or a breakdown below the recent low.
type VCP struct {
	tracker
	view *View

	lookback          int
	contractionRatio  float64
	volumeRatio       float64
	breakoutThreshold float64

	recentATR []float64
	histATR   []float64
	recentVol []float64
	avgVol    []float64
	highest   []float64
	lowest    []float64
}

// recentWindow is the short window used for the "recent" volatility and
// volume averages.
const vcpRecentWindow = 5

// Name implements Strategy.
func (s *VCP) Name() string { return "vcp" }

// Init implements Strategy.
func (s *VCP) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(),
		"lookback", "contraction_ratio", "volume_ratio", "breakout_threshold"); err != nil {
		return err
	}
	s.lookback = params.Int("lookback", 20)
	s.contractionRatio = params.Float("contraction_ratio", 0.7)
	s.volumeRatio = params.Float("volume_ratio", 0.8)
	s.breakoutThreshold = params.Float("breakout_threshold", 1.02)
	if s.lookback <= vcpRecentWindow {
		return fmt.Errorf("strategy %s: lookback must exceed %d", s.Name(), vcpRecentWindow)
	}
	if s.contractionRatio <= 0 || s.volumeRatio <= 0 || s.breakoutThreshold <= 0 {
		return fmt.Errorf("strategy %s: ratios must be positive", s.Name())
	}

	s.view = view
	highs := view.HighSeries()
	lows := view.LowSeries()
	closes := view.CloseSeries()
	volumes := view.VolumeSeries()

	atr := indicator.ATR(highs, lows, closes, s.lookback)
	s.recentATR = indicator.SMA(atr, vcpRecentWindow)
	s.histATR = indicator.SMA(atr, s.lookback)
	s.recentVol = indicator.SMA(volumes, vcpRecentWindow)
	s.avgVol = indicator.SMA(volumes, s.lookback)
	s.highest = indicator.Highest(highs, s.lookback)
	s.lowest = indicator.Lowest(lows, s.lookback)
	return nil
}

// MinBars implements Strategy.
func (s *VCP) MinBars() int {
	// The historic ATR average needs a full lookback of ATR values, each of
	// which needs a full lookback of true ranges.
	return 2 * s.lookback
}

// OnBar implements Strategy.
func (s *VCP) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	close := s.view.Close(i)

	if s.canSell() {
		if close <= s.firstEntry()*0.92 {
			return s.submit(Sell())
		}
		if indicator.Defined(s.lowest[i-1]) && close < s.lowest[i-1]*0.98 {
			return s.submit(Sell())
		}
		return Hold()
	}

	if !s.canBuy() {
		return Hold()
	}
	if !indicator.Defined(s.recentATR[i]) || !indicator.Defined(s.histATR[i]) ||
		!indicator.Defined(s.highest[i-1]) {
		return Hold()
	}
	contracted := s.recentATR[i] < s.histATR[i]*s.contractionRatio
	driedUp := s.recentVol[i] < s.avgVol[i]*s.volumeRatio
	breakout := close > s.highest[i-1]*s.breakoutThreshold
	if contracted && driedUp && breakout {
		return s.submit(Buy())
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *VCP) Finalize() string {
	return fmt.Sprintf("%s lookback=%d contraction=%.2f volume=%.2f breakout=%.2f",
		s.summary(s.Name()), s.lookback, s.contractionRatio, s.volumeRatio, s.breakoutThreshold)
}
