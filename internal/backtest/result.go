package backtest

import (
	"github.com/quantfarm/strata/internal/broker"
	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/strategy"
)

// Point is one dated sample in a rendered series. Dates use the granularity's
// layout (daily bars render as 2006-01-02, intraday bars add the time).
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// TradePoint marks one executed order on the price chart.
type TradePoint struct {
	Date     string  `json:"date"`
	Action   string  `json:"action"` // BUY or SELL
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Result is the full outcome of one backtest run. The layout is flat so it
// serializes directly for API responses and report rendering.
type Result struct {
	Symbol      string          `json:"symbol"`
	Strategy    string          `json:"strategy"`
	Params      strategy.Params `json:"params"`
	Granularity string          `json:"granularity"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Bars        int             `json:"bars"`

	InitialCash     float64  `json:"initial_cash"`
	FinalEquity     float64  `json:"final_equity"`
	TotalReturnPct  float64  `json:"total_return_pct"`
	AnnualReturnPct float64  `json:"annual_return_pct"`
	SharpeRatio     *float64 `json:"sharpe_ratio"` // null when undefined
	MaxDrawdownPct  float64  `json:"max_drawdown_pct"`
	TotalTrades     int      `json:"total_trades"`
	WinningTrades   int      `json:"winning_trades"`
	LosingTrades    int      `json:"losing_trades"`
	WinRatePct      float64  `json:"win_rate_pct"`

	OpenPosition    bool    `json:"open_position"`
	OpenQuantity    float64 `json:"open_quantity"`
	StrategySummary string  `json:"strategy_summary"`

	EquityCurve []Point              `json:"equity_curve"`
	PriceSeries []Point              `json:"price_series"`
	TradePoints []TradePoint         `json:"trade_points"`
	Trades      []broker.TradeRecord `json:"trades"`
}

// buildResult assembles the result from the run's raw artifacts.
func buildResult(req Request, series *market.Series, sim *broker.Simulator, points []TradePoint, summary string) *Result {
	layout := series.Granularity.DateFormat()
	bars := series.Bars

	curve := sim.EquityCurve()
	equityCurve := make([]Point, len(curve))
	for i, p := range curve {
		equityCurve[i] = Point{
			Date:  p.Timestamp.Format(layout),
			Value: p.Equity.InexactFloat64(),
		}
	}

	priceSeries := make([]Point, len(bars))
	for i, b := range bars {
		priceSeries[i] = Point{
			Date:  b.Timestamp.Format(layout),
			Value: b.Close.InexactFloat64(),
		}
	}

	initial := sim.InitialCash().InexactFloat64()
	metrics := computeMetrics(initial, curve, sim.Trades(), series.Start(), series.End())

	final := initial
	if len(curve) > 0 {
		final = curve[len(curve)-1].Equity.InexactFloat64()
	}

	openQty := sim.PositionQuantity()

	return &Result{
		Symbol:      series.Symbol,
		Strategy:    req.Strategy,
		Params:      req.Params,
		Granularity: string(series.Granularity),
		StartDate:   series.Start().Format(layout),
		EndDate:     series.End().Format(layout),
		Bars:        series.Len(),

		InitialCash:     initial,
		FinalEquity:     final,
		TotalReturnPct:  metrics.TotalReturnPct,
		AnnualReturnPct: metrics.AnnualReturnPct,
		SharpeRatio:     metrics.SharpeRatio,
		MaxDrawdownPct:  metrics.MaxDrawdownPct,
		TotalTrades:     metrics.TotalTrades,
		WinningTrades:   metrics.WinningTrades,
		LosingTrades:    metrics.LosingTrades,
		WinRatePct:      metrics.WinRatePct,

		OpenPosition:    openQty.IsPositive(),
		OpenQuantity:    openQty.InexactFloat64(),
		StrategySummary: summary,

		EquityCurve: equityCurve,
		PriceSeries: priceSeries,
		TradePoints: points,
		Trades:      sim.Trades(),
	}
}
