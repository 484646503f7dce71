package strategy

import (
	"fmt"
	"sort"
)

// registry is the static dispatch table from strategy name to constructor.
// It is populated at init time and read-only thereafter.
var registry = map[string]func() Strategy{
	"macross":         func() Strategy { return &MACross{} },
	"macd":            func() Strategy { return &MACDCross{} },
	"rsi":             func() Strategy { return &RSIThreshold{} },
	"bollinger":       func() Strategy { return &BollingerBreakout{} },
	"triple_ma":       func() Strategy { return &TripleMA{} },
	"mean_reversion":  func() Strategy { return &MeanReversion{} },
	"vcp":             func() Strategy { return &VCP{} },
	"candlestick":     func() Strategy { return &Candlestick{} },
	"swing":           func() Strategy { return &Swing{} },
	"trend_following": func() Strategy { return &TrendFollowing{} },
	"pyramid_add":     func() Strategy { return &PyramidAdd{} },
}

// New constructs a fresh strategy instance for one backtest run.
func New(name string) (Strategy, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q (available: %v): %w", name, Names(), ErrUnknownStrategy)
	}
	return factory(), nil
}

// Names returns every registered strategy name in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
