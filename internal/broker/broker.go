// Package broker simulates order execution against historical bars: slippage,
// percentage commission, whole-share sizing and a single-instrument long-only
// position ledger.
package broker

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfarm/strata/internal/logger"
	"github.com/quantfarm/strata/internal/strategy"
)

// ErrFillRejected means an order could not be executed (zero quantity,
// insufficient cash, or a sell with no open position). A rejected order is a
// no-op: the ledger is untouched.
var ErrFillRejected = errors.New("fill rejected")

// Config holds the simulator cost model.
type Config struct {
	InitialCash    decimal.Decimal
	CommissionRate decimal.Decimal // fraction of notional per side
	SlippageRate   decimal.Decimal // adverse price adjustment per side
	EquityFraction decimal.Decimal // default buy sizer; (0,1]
	FillPolicy     FillPolicy
}

// DefaultConfig returns the standard cost model: 100k cash, 0.1% commission,
// 0.05% slippage, buys sized at 95% of equity, fills at the signal bar close.
func DefaultConfig() Config {
	return Config{
		InitialCash:    decimal.NewFromInt(100_000),
		CommissionRate: decimal.NewFromFloat(0.001),
		SlippageRate:   decimal.NewFromFloat(0.0005),
		EquityFraction: decimal.NewFromFloat(0.95),
		FillPolicy:     FillOnClose,
	}
}

func (c Config) withDefaults() Config {
	if c.InitialCash.IsZero() {
		c.InitialCash = decimal.NewFromInt(100_000)
	}
	if c.EquityFraction.IsZero() {
		c.EquityFraction = decimal.NewFromFloat(0.95)
	}
	return c
}

// Simulator is the execution and position ledger for one backtest run. It is
// not safe for concurrent use; each run owns its own instance.
type Simulator struct {
	cfg    Config
	cash   decimal.Decimal
	lots   []lot
	trades []TradeRecord
	curve  []EquityPoint
	log    *logger.Logger
}

// NewSimulator builds a simulator with the given cost model.
func NewSimulator(cfg Config, log *logger.Logger) *Simulator {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.Default()
	}
	return &Simulator{
		cfg:  cfg,
		cash: cfg.InitialCash,
		log:  log.Component("broker"),
	}
}

// Cash returns the current cash balance.
func (s *Simulator) Cash() decimal.Decimal { return s.cash }

// InitialCash returns the starting balance after defaulting.
func (s *Simulator) InitialCash() decimal.Decimal { return s.cfg.InitialCash }

// PositionQuantity returns the total open share count.
func (s *Simulator) PositionQuantity() decimal.Decimal {
	qty := decimal.Zero
	for _, l := range s.lots {
		qty = qty.Add(l.quantity)
	}
	return qty
}

// OpenLots returns the number of open lots.
func (s *Simulator) OpenLots() int { return len(s.lots) }

// Equity returns cash plus the open position valued at the given price.
func (s *Simulator) Equity(price decimal.Decimal) decimal.Decimal {
	return s.cash.Add(s.PositionQuantity().Mul(price))
}

// Trades returns the closed round trips in exit order.
func (s *Simulator) Trades() []TradeRecord { return s.trades }

// EquityCurve returns the recorded mark-to-market samples.
func (s *Simulator) EquityCurve() []EquityPoint { return s.curve }

// FillPolicy returns the configured fill timing.
func (s *Simulator) FillPolicy() FillPolicy { return s.cfg.FillPolicy }

// fillPrice applies slippage against the order direction.
func (s *Simulator) fillPrice(side strategy.Side, price decimal.Decimal) decimal.Decimal {
	if side == strategy.SideBuy {
		return price.Mul(decimal.NewFromInt(1).Add(s.cfg.SlippageRate))
	}
	return price.Mul(decimal.NewFromInt(1).Sub(s.cfg.SlippageRate))
}

// sizeBuy resolves a buy order to a whole-share quantity at the fill price.
func (s *Simulator) sizeBuy(o Order, fillPrice decimal.Decimal) decimal.Decimal {
	if o.Quantity.IsPositive() {
		return o.Quantity.Floor()
	}
	fraction := s.cfg.EquityFraction
	if o.EquityFraction > 0 {
		fraction = decimal.NewFromFloat(o.EquityFraction)
	}
	if fillPrice.IsZero() {
		return decimal.Zero
	}
	budget := s.Equity(fillPrice).Mul(fraction)
	return budget.Div(fillPrice).Floor()
}

// Execute fills an order at the given raw bar price, applying slippage and
// commission. Rejections return ErrFillRejected and leave the ledger
// untouched.
func (s *Simulator) Execute(o Order, barIndex int, ts time.Time, price decimal.Decimal) (*Execution, error) {
	if o.Side == strategy.SideBuy {
		return s.executeBuy(o, barIndex, ts, price)
	}
	return s.executeSell(barIndex, ts, price)
}

func (s *Simulator) executeBuy(o Order, barIndex int, ts time.Time, price decimal.Decimal) (*Execution, error) {
	fill := s.fillPrice(strategy.SideBuy, price)
	qty := s.sizeBuy(o, fill)
	if !qty.IsPositive() {
		s.log.Debug("buy rejected: zero quantity", "bar", barIndex, "price", price)
		return nil, ErrFillRejected
	}
	notional := fill.Mul(qty)
	commission := notional.Mul(s.cfg.CommissionRate)
	cost := notional.Add(commission)
	if cost.GreaterThan(s.cash) {
		s.log.Debug("buy rejected: insufficient cash",
			"bar", barIndex, "cost", cost, "cash", s.cash)
		return nil, ErrFillRejected
	}

	s.cash = s.cash.Sub(cost)
	s.lots = append(s.lots, lot{
		id:         newLotID(),
		barIndex:   barIndex,
		timestamp:  ts,
		quantity:   qty,
		price:      fill,
		commission: commission,
	})
	return &Execution{
		Side:       strategy.SideBuy,
		BarIndex:   barIndex,
		Timestamp:  ts,
		Price:      fill,
		Quantity:   qty,
		Commission: commission,
	}, nil
}

// executeSell closes the entire position oldest lot first.
func (s *Simulator) executeSell(barIndex int, ts time.Time, price decimal.Decimal) (*Execution, error) {
	total := s.PositionQuantity()
	if !total.IsPositive() {
		s.log.Debug("sell rejected: no open position", "bar", barIndex)
		return nil, ErrFillRejected
	}
	fill := s.fillPrice(strategy.SideSell, price)
	proceeds := fill.Mul(total)
	commission := proceeds.Mul(s.cfg.CommissionRate)
	s.cash = s.cash.Add(proceeds).Sub(commission)

	for _, l := range s.lots {
		lotCommission := commission.Mul(l.quantity).Div(total)
		s.trades = append(s.trades, closeLot(l, barIndex, ts, fill, lotCommission))
	}
	s.lots = nil

	return &Execution{
		Side:       strategy.SideSell,
		BarIndex:   barIndex,
		Timestamp:  ts,
		Price:      fill,
		Quantity:   total,
		Commission: commission,
	}, nil
}

// MarkToMarket records one equity sample at the given close price.
func (s *Simulator) MarkToMarket(barIndex int, ts time.Time, close decimal.Decimal) EquityPoint {
	point := EquityPoint{BarIndex: barIndex, Timestamp: ts, Equity: s.Equity(close)}
	s.curve = append(s.curve, point)
	return point
}
