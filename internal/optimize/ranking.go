package optimize

import (
	"sort"

	"github.com/quantfarm/strata/internal/backtest"
)

// Metric selects the ranking criterion for FindBest.
type Metric string

const (
	MetricTotalReturn  Metric = "total_return_pct"
	MetricSharpe       Metric = "sharpe_ratio"
	MetricAnnualReturn Metric = "annual_return_pct"
)

// metricValue extracts the metric from a result. ok is false when the metric
// is undefined for this run (a nil Sharpe ratio).
func metricValue(r *backtest.Result, m Metric) (float64, bool) {
	switch m {
	case MetricSharpe:
		if r.SharpeRatio == nil {
			return 0, false
		}
		return *r.SharpeRatio, true
	case MetricAnnualReturn:
		return r.AnnualReturnPct, true
	default:
		return r.TotalReturnPct, true
	}
}

// sharpeOrMin returns the Sharpe ratio or a sentinel low value when
// undefined, for use as a secondary sort key.
func sharpeOrMin(r *backtest.Result) float64 {
	if r.SharpeRatio == nil {
		return -999
	}
	return *r.SharpeRatio
}

// FindBest ranks results by the given metric and returns the winner, or nil
// when no result carries the metric.
//
// Ranking rules:
//   - Sharpe: positive values beat non-positive ones, then higher wins.
//   - Total return with every candidate tied (e.g. all zero because nothing
//     traded): more trades wins, then higher Sharpe.
//   - Otherwise: higher metric wins.
//
// Ties that survive these keys resolve to the earliest result, so the
// outcome is deterministic for a fixed input order.
func FindBest(results []*backtest.Result, metric Metric) *backtest.Result {
	valid := make([]*backtest.Result, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		if _, ok := metricValue(r, metric); ok {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	allSame := true
	first, _ := metricValue(valid[0], metric)
	for _, r := range valid[1:] {
		if v, _ := metricValue(r, metric); v != first {
			allSame = false
			break
		}
	}

	ranked := make([]*backtest.Result, len(valid))
	copy(ranked, valid)

	switch {
	case allSame && metric == MetricTotalReturn:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].TotalTrades != ranked[j].TotalTrades {
				return ranked[i].TotalTrades > ranked[j].TotalTrades
			}
			return sharpeOrMin(ranked[i]) > sharpeOrMin(ranked[j])
		})
	case metric == MetricSharpe:
		sort.SliceStable(ranked, func(i, j int) bool {
			vi, _ := metricValue(ranked[i], metric)
			vj, _ := metricValue(ranked[j], metric)
			pi, pj := vi > 0, vj > 0
			if pi != pj {
				return pi
			}
			return vi > vj
		})
	default:
		sort.SliceStable(ranked, func(i, j int) bool {
			vi, _ := metricValue(ranked[i], metric)
			vj, _ := metricValue(ranked[j], metric)
			return vi > vj
		})
	}

	return ranked[0]
}
