// Package strategy implements the trading strategies evaluated by the
// backtest engine. Each strategy is a per-run state machine: it is
// initialized with a series view and a parameter set, consumes one bar at a
// time and emits a buy/sell/hold decision. A strategy never accesses data
// beyond the bar currently being simulated.
package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel configuration errors.
var (
	// ErrUnknownStrategy means the requested strategy name is not registered.
	ErrUnknownStrategy = errors.New("unknown strategy")

	// ErrUnknownParameter means a parameter key is not accepted by the
	// strategy it was passed to.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Action is the kind of decision a strategy emits for a bar.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case ActionBuy:
		return "BUY"
	case ActionSell:
		return "SELL"
	default:
		return "HOLD"
	}
}

// Decision is the outcome of one OnBar call. A Buy may carry an explicit
// share quantity or a fraction of current equity; when both are zero the
// broker applies its default sizer. A Sell always closes the full position.
type Decision struct {
	Action         Action
	Quantity       decimal.Decimal
	EquityFraction float64
}

// Hold returns a hold decision.
func Hold() Decision {
	return Decision{Action: ActionHold}
}

// Buy returns a buy decision sized by the broker's default sizer.
func Buy() Decision {
	return Decision{Action: ActionBuy}
}

// BuyFraction returns a buy decision sized as a fraction of current equity.
func BuyFraction(fraction float64) Decision {
	return Decision{Action: ActionBuy, EquityFraction: fraction}
}

// Sell returns a decision closing the full position.
func Sell() Decision {
	return Decision{Action: ActionSell}
}

// Side distinguishes buy and sell fills.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

// String implements fmt.Stringer.
func (s Side) String() string {
	if s == SideSell {
		return "SELL"
	}
	return "BUY"
}

// Fill reports a resolved order back to the strategy.
type Fill struct {
	Side     Side
	Price    float64
	Quantity float64
	BarIndex int
}

// Strategy is the per-run state machine interface. Implementations hold
// ordinary mutable fields for their internal memory (entry prices, trailing
// extrema); one instance serves exactly one backtest run.
type Strategy interface {
	// Name returns the registry name of the strategy.
	Name() string

	// Init validates parameters and precomputes the indicator series the
	// strategy depends on. It must be called exactly once before OnBar.
	Init(view *View, params Params) error

	// MinBars returns the maximum lookback any of the strategy's
	// indicators requires. OnBar emits Hold for every bar index below it.
	MinBars() int

	// OnBar consumes bar i and returns the decision for it.
	OnBar(i int) Decision

	// NotifyFill reports that the order emitted by the last decision was
	// filled. It clears the pending-order flag.
	NotifyFill(fill Fill)

	// NotifyReject reports that the order was rejected (e.g. insufficient
	// cash). It clears the pending-order flag without touching position
	// state.
	NotifyReject()

	// Finalize returns a one-line summary for the run log.
	Finalize() string
}

// Params carries strategy parameters as loosely typed values, matching the
// parameter-grid tables. Numeric values may arrive as int, int64 or float64
// depending on their origin (static grid, YAML, JSON).
type Params map[string]any

// Int returns the named parameter as an int, or def when absent.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Float returns the named parameter as a float64, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return def
}

// String returns the named parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// checkKnown rejects parameter keys outside the accepted set.
func (p Params) checkKnown(strategyName string, known ...string) error {
	for key := range p {
		found := false
		for _, k := range known {
			if key == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("strategy %s: parameter %q: %w", strategyName, key, ErrUnknownParameter)
		}
	}
	return nil
}

// tracker is the state every strategy shares: the current position flag, the
// pending-order flag (at most one in-flight order at a time) and the entry
// and high-water memory used by trailing stops and pyramiding.
type tracker struct {
	inPosition bool
	pending    bool
	entries    []float64 // fill prices, oldest first
	highWater  float64   // running close high since entry
	buys       int
	sells      int
}

// NotifyFill implements the Strategy fill callback.
func (t *tracker) NotifyFill(fill Fill) {
	t.pending = false
	switch fill.Side {
	case SideBuy:
		t.inPosition = true
		t.entries = append(t.entries, fill.Price)
		if fill.Price > t.highWater {
			t.highWater = fill.Price
		}
		t.buys++
	case SideSell:
		// Full exit clears all entry memory.
		t.inPosition = false
		t.entries = nil
		t.highWater = 0
		t.sells++
	}
}

// NotifyReject implements the Strategy reject callback.
func (t *tracker) NotifyReject() {
	t.pending = false
}

// canBuy reports whether a new entry order may be submitted.
func (t *tracker) canBuy() bool {
	return !t.inPosition && !t.pending
}

// canAdd reports whether an add-on order may be submitted while long.
func (t *tracker) canAdd() bool {
	return t.inPosition && !t.pending
}

// canSell reports whether an exit order may be submitted.
func (t *tracker) canSell() bool {
	return t.inPosition && !t.pending
}

// submit marks an order as in flight and returns d unchanged.
func (t *tracker) submit(d Decision) Decision {
	t.pending = true
	return d
}

// observe updates the running high-water mark while in a position.
func (t *tracker) observe(close float64) {
	if t.inPosition && close > t.highWater {
		t.highWater = close
	}
}

// firstEntry returns the oldest entry fill price, or 0 when flat.
func (t *tracker) firstEntry() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[0]
}

// lastEntry returns the most recent entry fill price, or 0 when flat.
func (t *tracker) lastEntry() float64 {
	if len(t.entries) == 0 {
		return 0
	}
	return t.entries[len(t.entries)-1]
}

// summary renders the shared part of Finalize output.
func (t *tracker) summary(name string) string {
	return fmt.Sprintf("strategy=%s buys=%d sells=%d open_position=%t", name, t.buys, t.sells, t.inPosition)
}
