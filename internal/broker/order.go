package broker

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfarm/strata/internal/strategy"
)

// FillPolicy selects the bar price an order fills at.
type FillPolicy int

const (
	// FillOnClose fills an order at the close of the bar that produced it.
	FillOnClose FillPolicy = iota

	// FillOnNextOpen fills an order at the open of the following bar.
	FillOnNextOpen
)

// String implements fmt.Stringer.
func (p FillPolicy) String() string {
	if p == FillOnNextOpen {
		return "next_open"
	}
	return "close"
}

// Order is one instruction from a strategy to the simulator. Quantity and
// EquityFraction are alternative sizings for buys; when both are zero the
// simulator's default sizer applies. Sells always close the full position.
type Order struct {
	Side           strategy.Side
	Quantity       decimal.Decimal
	EquityFraction float64
	BarIndex       int
}

// OrderFromDecision translates a strategy decision into an order. Hold
// decisions have no order; ok is false for them.
func OrderFromDecision(d strategy.Decision, barIndex int) (Order, bool) {
	switch d.Action {
	case strategy.ActionBuy:
		return Order{
			Side:           strategy.SideBuy,
			Quantity:       d.Quantity,
			EquityFraction: d.EquityFraction,
			BarIndex:       barIndex,
		}, true
	case strategy.ActionSell:
		return Order{Side: strategy.SideSell, BarIndex: barIndex}, true
	default:
		return Order{}, false
	}
}

// Execution is a resolved order: the fill price includes slippage, and the
// commission has already been deducted from cash.
type Execution struct {
	Side       strategy.Side
	BarIndex   int
	Timestamp  time.Time
	Price      decimal.Decimal
	Quantity   decimal.Decimal
	Commission decimal.Decimal
}
