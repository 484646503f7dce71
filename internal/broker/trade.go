package broker

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfarm/strata/pkg/utils"
)

func newLotID() string { return uuid.NewString() }

// lot is one open buy fill awaiting its exit. Lots close oldest-first.
type lot struct {
	id         string
	barIndex   int
	timestamp  time.Time
	quantity   decimal.Decimal
	price      decimal.Decimal
	commission decimal.Decimal
}

// TradeRecord is one closed round trip. When an exit closes several lots at
// once, each lot yields its own record; the exit commission is split across
// them in proportion to quantity so that summing PnL over all records plus
// the final unrealized value reconciles exactly with the cash ledger.
type TradeRecord struct {
	ID              string          `json:"id"`
	Quantity        decimal.Decimal `json:"quantity"`
	EntryBarIndex   int             `json:"entry_bar_index"`
	EntryTime       time.Time       `json:"entry_time"`
	EntryPrice      decimal.Decimal `json:"entry_price"`
	EntryCommission decimal.Decimal `json:"entry_commission"`
	ExitBarIndex    int             `json:"exit_bar_index"`
	ExitTime        time.Time       `json:"exit_time"`
	ExitPrice       decimal.Decimal `json:"exit_price"`
	ExitCommission  decimal.Decimal `json:"exit_commission"`
	PnL             decimal.Decimal `json:"pnl"`
	ReturnPct       decimal.Decimal `json:"return_pct"`
}

// closeLot turns an open lot into a trade record at the given exit fill. The
// record keeps the lot's id, so an entry can be traced through to its exit.
func closeLot(l lot, exitBar int, exitTime time.Time, exitPrice, exitCommission decimal.Decimal) TradeRecord {
	proceeds := exitPrice.Mul(l.quantity)
	cost := l.price.Mul(l.quantity)
	pnl := proceeds.Sub(cost).Sub(l.commission).Sub(exitCommission)
	basis := cost.Add(l.commission)
	return TradeRecord{
		ID:              l.id,
		Quantity:        l.quantity,
		EntryBarIndex:   l.barIndex,
		EntryTime:       l.timestamp,
		EntryPrice:      l.price,
		EntryCommission: l.commission,
		ExitBarIndex:    exitBar,
		ExitTime:        exitTime,
		ExitPrice:       exitPrice,
		ExitCommission:  exitCommission,
		PnL:             pnl,
		ReturnPct:       utils.SafeDiv(pnl, basis).Mul(decimal.NewFromInt(100)),
	}
}

// EquityPoint is one mark-to-market sample of the account value.
type EquityPoint struct {
	BarIndex  int             `json:"bar_index"`
	Timestamp time.Time       `json:"timestamp"`
	Equity    decimal.Decimal `json:"equity"`
}
