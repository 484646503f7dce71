package optimize

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/quantfarm/strata/internal/backtest"
	"github.com/quantfarm/strata/internal/broker"
	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/strategy"
)

// RunSpec fixes the data window shared by every run of one sweep.
type RunSpec struct {
	Symbol      string
	Start       time.Time
	End         time.Time
	Granularity market.Granularity
}

// StrategyReport is the outcome of optimizing one strategy on one symbol.
type StrategyReport struct {
	Symbol            string             `json:"symbol"`
	Strategy          string             `json:"strategy"`
	TotalCombinations int                `json:"total_combinations"`
	ValidResults      int                `json:"valid_results"`
	Results           []*backtest.Result `json:"results"`
	BestByReturn      *backtest.Result   `json:"best_by_return"`
	BestBySharpe      *backtest.Result   `json:"best_by_sharpe"`
	BestByAnnual      *backtest.Result   `json:"best_by_annual"`
}

// SymbolReport is the outcome of sweeping every strategy on one symbol.
type SymbolReport struct {
	Symbol            string             `json:"symbol"`
	TotalCombinations int                `json:"total_combinations"`
	ValidResults      int                `json:"valid_results"`
	Results           []*backtest.Result `json:"results"`
	BestByReturn      *backtest.Result   `json:"best_by_return"`
	BestBySharpe      *backtest.Result   `json:"best_by_sharpe"`
	BestByAnnual      *backtest.Result   `json:"best_by_annual"`
}

// Options configures an optimizer.
type Options struct {
	Grids       Grids         // nil means DefaultGrids
	Concurrency int           // worker count; <=0 means GOMAXPROCS
	Broker      broker.Config // cost model shared by every run
}

// Optimizer fans parameter sweeps out over a bounded worker pool. One failed
// or panicking run never aborts the sweep; it is logged and skipped.
type Optimizer struct {
	engine      *backtest.Engine
	grids       Grids
	concurrency int
	brokerCfg   broker.Config
	log         *logger.Logger
}

// New builds an optimizer around a backtest engine.
func New(engine *backtest.Engine, opts Options, log *logger.Logger) *Optimizer {
	if opts.Grids == nil {
		opts.Grids = DefaultGrids()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Optimizer{
		engine:      engine,
		grids:       opts.Grids,
		concurrency: opts.Concurrency,
		brokerCfg:   opts.Broker,
		log:         log.Component("optimizer"),
	}
}

// job is one run of the sweep; its index keeps result order deterministic
// regardless of worker scheduling.
type job struct {
	index    int
	strategy string
	params   strategy.Params
}

// runAll executes every job over the worker pool and returns the successful
// results in job order.
func (o *Optimizer) runAll(ctx context.Context, spec RunSpec, jobs []job) []*backtest.Result {
	results := make([]*backtest.Result, len(jobs))
	queue := make(chan job)

	var wg sync.WaitGroup
	for w := 0; w < o.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				results[j.index] = o.runOne(ctx, spec, j)
			}
		}()
	}

	for _, j := range jobs {
		queue <- j
	}
	close(queue)
	wg.Wait()

	compact := results[:0]
	for _, r := range results {
		if r != nil {
			compact = append(compact, r)
		}
	}
	return compact
}

// runOne executes a single backtest, isolating panics to this run.
func (o *Optimizer) runOne(ctx context.Context, spec RunSpec, j job) (result *backtest.Result) {
	log := o.log.Symbol(spec.Symbol).Strategy(j.strategy)
	defer func() {
		if r := recover(); r != nil {
			log.Error("run panicked", "params", j.params, "panic", fmt.Sprint(r))
			result = nil
		}
	}()

	res, err := o.engine.Run(ctx, backtest.Request{
		Symbol:      spec.Symbol,
		Strategy:    j.strategy,
		Params:      j.params,
		Start:       spec.Start,
		End:         spec.End,
		Granularity: spec.Granularity,
		Broker:      o.brokerCfg,
	})
	if err != nil {
		log.WithError(err).Warn("run failed", "params", j.params)
		return nil
	}
	return res
}

// Combinations expands the grid for one strategy. Strategies without a grid
// run once with default parameters.
func (o *Optimizer) Combinations(strategyName string) []strategy.Params {
	grid, ok := o.grids[strategyName]
	if !ok {
		return []strategy.Params{{}}
	}
	return Expand(grid)
}

// OptimizeStrategy sweeps one strategy's grid on one symbol.
func (o *Optimizer) OptimizeStrategy(ctx context.Context, spec RunSpec, strategyName string) (*StrategyReport, error) {
	if _, err := strategy.New(strategyName); err != nil {
		return nil, err
	}
	combos := o.Combinations(strategyName)
	jobs := make([]job, len(combos))
	for i, params := range combos {
		jobs[i] = job{index: i, strategy: strategyName, params: params}
	}

	o.log.Info("optimizing strategy",
		"symbol", spec.Symbol, "strategy", strategyName, "combinations", len(jobs))
	results := o.runAll(ctx, spec, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &StrategyReport{
		Symbol:            spec.Symbol,
		Strategy:          strategyName,
		TotalCombinations: len(combos),
		ValidResults:      len(results),
		Results:           results,
		BestByReturn:      FindBest(results, MetricTotalReturn),
		BestBySharpe:      FindBest(results, MetricSharpe),
		BestByAnnual:      FindBest(results, MetricAnnualReturn),
	}, nil
}

// BatchAllStrategies sweeps every registered strategy's grid on one symbol.
func (o *Optimizer) BatchAllStrategies(ctx context.Context, spec RunSpec) (*SymbolReport, error) {
	var jobs []job
	for _, name := range strategy.Names() {
		for _, params := range o.Combinations(name) {
			jobs = append(jobs, job{index: len(jobs), strategy: name, params: params})
		}
	}

	o.log.Info("optimizing all strategies", "symbol", spec.Symbol, "combinations", len(jobs))
	results := o.runAll(ctx, spec, jobs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &SymbolReport{
		Symbol:            spec.Symbol,
		TotalCombinations: len(jobs),
		ValidResults:      len(results),
		Results:           results,
		BestByReturn:      FindBest(results, MetricTotalReturn),
		BestBySharpe:      FindBest(results, MetricSharpe),
		BestByAnnual:      FindBest(results, MetricAnnualReturn),
	}, nil
}

// BatchOptimize runs BatchAllStrategies for each symbol in turn. A symbol
// whose sweep yields no valid results still appears in the output with an
// empty report.
func (o *Optimizer) BatchOptimize(ctx context.Context, symbols []string, start, end time.Time, granularity market.Granularity) ([]*SymbolReport, error) {
	reports := make([]*SymbolReport, 0, len(symbols))
	for _, symbol := range symbols {
		report, err := o.BatchAllStrategies(ctx, RunSpec{
			Symbol:      symbol,
			Start:       start,
			End:         end,
			Granularity: granularity,
		})
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}
