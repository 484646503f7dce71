package backtest

import (
	"math"
	"time"

	"github.com/quantfarm/strata/internal/broker"
)

// tradingDaysPerYear is the annualization base for the Sharpe ratio.
const tradingDaysPerYear = 252

// Metrics are the aggregate performance numbers of one run.
type Metrics struct {
	TotalReturnPct  float64
	AnnualReturnPct float64
	SharpeRatio     *float64 // nil when undefined (flat or too-short curve)
	MaxDrawdownPct  float64
	TotalTrades     int
	WinningTrades   int
	LosingTrades    int
	WinRatePct      float64
}

// computeMetrics derives the aggregate numbers from the equity curve and the
// closed trades.
func computeMetrics(initialCash float64, curve []broker.EquityPoint, trades []broker.TradeRecord, start, end time.Time) Metrics {
	var m Metrics
	if len(curve) == 0 || initialCash <= 0 {
		return m
	}

	final := curve[len(curve)-1].Equity.InexactFloat64()
	m.TotalReturnPct = (final/initialCash - 1) * 100

	years := end.Sub(start).Hours() / (24 * 365.25)
	if years > 0 {
		m.AnnualReturnPct = m.TotalReturnPct / years
	} else {
		m.AnnualReturnPct = m.TotalReturnPct
	}

	m.SharpeRatio = sharpeRatio(curve)
	m.MaxDrawdownPct = maxDrawdown(curve)

	m.TotalTrades = len(trades)
	for _, t := range trades {
		switch {
		case t.PnL.IsPositive():
			m.WinningTrades++
		case t.PnL.IsNegative():
			m.LosingTrades++
		}
	}
	if m.TotalTrades > 0 {
		m.WinRatePct = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
	}
	return m
}

// sharpeRatio is the mean over sample standard deviation of per-bar equity
// returns, annualized by sqrt(252). The same base applies at every
// granularity so that scores stay comparable within one optimization sweep.
// Returns nil when fewer than two returns exist or the curve is flat.
func sharpeRatio(curve []broker.EquityPoint) *float64 {
	if len(curve) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity.InexactFloat64()
		if prev == 0 {
			continue
		}
		returns = append(returns, curve[i].Equity.InexactFloat64()/prev-1)
	}
	if len(returns) < 2 {
		return nil
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	if variance == 0 {
		return nil
	}

	sharpe := mean / math.Sqrt(variance) * math.Sqrt(tradingDaysPerYear)
	return &sharpe
}

// maxDrawdown is the largest peak-to-trough equity decline, in percent.
func maxDrawdown(curve []broker.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range curve {
		equity := p.Equity.InexactFloat64()
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
