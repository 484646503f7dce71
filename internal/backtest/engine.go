// Package backtest runs one strategy over one bar series and produces the
// run's equity curve, trade log and aggregate metrics.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfarm/strata/internal/broker"
	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/strategy"
)

// ErrInsufficientData means the series is too short for the strategy's
// lookback; the run is not started.
var ErrInsufficientData = errors.New("insufficient data")

// Request describes one backtest run.
type Request struct {
	Symbol      string
	Strategy    string
	Params      strategy.Params
	Start       time.Time
	End         time.Time
	Granularity market.Granularity
	Broker      broker.Config
}

// Engine runs backtests against a bar source. It holds no per-run state and
// is safe for concurrent Run calls.
type Engine struct {
	source market.BarSource
	log    *logger.Logger
}

// NewEngine builds an engine over the given bar source.
func NewEngine(source market.BarSource, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		source: source,
		log:    log.Component("engine"),
	}
}

// Run executes one backtest: load bars, initialize the strategy, walk the
// series bar by bar routing decisions through the simulator, then assemble
// the result. Runs with identical requests over identical data produce
// identical results.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.Granularity.Valid() {
		return nil, fmt.Errorf("granularity %q not supported", req.Granularity)
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("start %s not before end %s",
			req.Start.Format(time.RFC3339), req.End.Format(time.RFC3339))
	}
	log := e.log.Symbol(req.Symbol).Strategy(req.Strategy)
	end := market.ClipEnd(req.End, log)

	series, err := e.source.GetBars(ctx, req.Symbol, req.Start, end, req.Granularity)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(req.Strategy)
	if err != nil {
		return nil, err
	}
	view := strategy.NewView(series.Bars)
	if err := strat.Init(view, req.Params); err != nil {
		return nil, err
	}
	if series.Len() <= strat.MinBars() {
		return nil, fmt.Errorf("%s/%s: %d bars, need more than %d: %w",
			req.Symbol, req.Strategy, series.Len(), strat.MinBars(), ErrInsufficientData)
	}

	sim := broker.NewSimulator(req.Broker, log)
	layout := series.Granularity.DateFormat()

	var points []TradePoint
	var pending *broker.Order

	for i, bar := range series.Bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		view.Advance(i)

		// A queued order from the previous bar fills at this bar's open.
		if pending != nil {
			e.resolve(sim, strat, *pending, i, bar.Timestamp, bar.Open, layout, &points)
			pending = nil
		}

		decision := strat.OnBar(i)
		if order, ok := broker.OrderFromDecision(decision, i); ok {
			if sim.FillPolicy() == broker.FillOnNextOpen {
				pending = &order
			} else {
				e.resolve(sim, strat, order, i, bar.Timestamp, bar.Close, layout, &points)
			}
		}

		sim.MarkToMarket(i, bar.Timestamp, bar.Close)
	}

	summary := strat.Finalize()
	log.Info("run complete",
		"bars", series.Len(),
		"trades", len(sim.Trades()),
		"final_equity", sim.Equity(series.Bars[series.Len()-1].Close),
		"summary", summary)

	return buildResult(req, series, sim, points, summary), nil
}

// resolve executes one order and routes the outcome back to the strategy.
func (e *Engine) resolve(sim *broker.Simulator, strat strategy.Strategy, order broker.Order,
	barIndex int, ts time.Time, price decimal.Decimal, layout string, points *[]TradePoint) {

	exec, err := sim.Execute(order, barIndex, ts, price)
	if err != nil {
		strat.NotifyReject()
		return
	}
	strat.NotifyFill(strategy.Fill{
		Side:     exec.Side,
		Price:    exec.Price.InexactFloat64(),
		Quantity: exec.Quantity.InexactFloat64(),
		BarIndex: barIndex,
	})
	*points = append(*points, TradePoint{
		Date:     ts.Format(layout),
		Action:   exec.Side.String(),
		Price:    exec.Price.InexactFloat64(),
		Quantity: exec.Quantity.InexactFloat64(),
	})
}
