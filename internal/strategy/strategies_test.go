package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/strata/internal/market"
	"github.com/quantfarm/strata/internal/testutils"
)

func TestMACrossBuysOnBreakout(t *testing.T) {
	// Flat base, then a sustained ramp: the fast average crosses above the
	// slow one exactly once and never crosses back.
	closes := append(testutils.FlatCloses(40, 100), testutils.RampCloses(60, 100, 1)...)
	s := &MACross{}
	buys, sells := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)

	assert.Equal(t, 1, buys)
	assert.Zero(t, sells)
}

func TestMACrossRoundTrip(t *testing.T) {
	// Ramp up then decay: one cross above, later one cross below.
	up := testutils.RampCloses(50, 100, 1)
	down := testutils.RampCloses(50, 149, -1)
	closes := append(append(testutils.FlatCloses(40, 100), up...), down...)

	s := &MACross{}
	buys, sells := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)
	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, sells)
}

func TestMACrossInvalidPeriods(t *testing.T) {
	s := &MACross{}
	view := NewView(testutils.BarsFromCloses(testutils.FlatCloses(50, 100)))
	err := s.Init(view, Params{"fast_period": 0})
	assert.Error(t, err)
}

func TestTripleMAExitsWhenMidDropsBelowSlow(t *testing.T) {
	// A long decline drags the mid average under the slow one while the last
	// few closes tick up, so the fast average sits above the mid. A held
	// position must still be closed: the full alignment is broken.
	closes := []float64{100, 98, 96, 94, 92, 90, 88, 86, 84, 82, 80, 81, 82, 83}
	s := &TripleMA{}
	view := NewView(testutils.BarsFromCloses(closes))
	require.NoError(t, s.Init(view, Params{"fast_period": 3, "mid_period": 5, "slow_period": 10}))

	last := len(closes) - 1
	view.Advance(last)
	s.NotifyFill(Fill{Side: SideBuy, Price: 80, BarIndex: 10})

	// At the last bar fast=82, mid=81.6, slow=84.8.
	d := s.OnBar(last)
	assert.Equal(t, ActionSell, d.Action)
}

func TestRSIDipAndRip(t *testing.T) {
	// Hold flat, dive 30%, then recover: RSI drops through oversold during
	// the dive (one buy) and climbs through overbought on the recovery (one
	// sell).
	closes := testutils.DipAndRipCloses(30, 15, 20, 100, 0.3)
	s := &RSIThreshold{}
	buys, sells := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)

	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, sells)
}

func TestRSIRejectsInvertedThresholds(t *testing.T) {
	s := &RSIThreshold{}
	view := NewView(testutils.BarsFromCloses(testutils.FlatCloses(50, 100)))
	err := s.Init(view, Params{"oversold": 70, "overbought": 30})
	assert.Error(t, err)
}

func TestMeanReversionBuysTheDeviation(t *testing.T) {
	// A sharp one-bar drop below the 20-bar average by more than 2%.
	closes := testutils.FlatCloses(40, 100)
	closes = append(closes, 95, 95, 95)            // below average: buy
	closes = append(closes, 103, 104, 105, 106)    // above average: sell
	s := &MeanReversion{}
	buys, sells := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)

	assert.Equal(t, 1, buys)
	assert.Equal(t, 1, sells)
}

func TestBollingerReversal(t *testing.T) {
	closes := testutils.FlatCloses(30, 100)
	// Gentle noise so the bands stay open, then a plunge through the lower
	// band and a spike through the upper one.
	noise := []float64{100.5, 99.5, 100.5, 99.5, 100.5, 99.5, 100.5, 99.5, 100.5, 99.5}
	closes = append(closes, noise...)
	closes = append(closes, 95)  // below lower band
	closes = append(closes, 106) // above upper band
	closes = append(closes, 106)

	s := &BollingerBreakout{}
	buys, sells := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)
	assert.GreaterOrEqual(t, buys, 1)
	assert.GreaterOrEqual(t, sells, 1)
}

// pyramidBars builds bars with explicit opens so gap-up entries can fire.
func pyramidBars(opens, closes []float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i := range closes {
		high := opens[i]
		if closes[i] > high {
			high = closes[i]
		}
		low := opens[i]
		if closes[i] < low {
			low = closes[i]
		}
		bars[i] = market.Bar{
			Timestamp: testutils.Anchor.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(opens[i]),
			High:      decimal.NewFromFloat(high + 0.1),
			Low:       decimal.NewFromFloat(low - 0.1),
			Close:     decimal.NewFromFloat(closes[i]),
			Volume:    decimal.NewFromInt(10_000),
			Amount:    decimal.NewFromFloat(closes[i] * 10_000),
		}
	}
	return bars
}

func TestPyramidAddEntryAddAndTrailingStop(t *testing.T) {
	n := 30
	opens := make([]float64, 0, n)
	closes := make([]float64, 0, n)
	for i := 0; i < 20; i++ { // warm-up: flat
		opens = append(opens, 100)
		closes = append(closes, 100)
	}
	// Bar 20: gap-up open (+2%) with close above the 20-bar average.
	opens = append(opens, 102)
	closes = append(closes, 103)
	// Bar 21: +3% from last entry, triggers an add.
	opens = append(opens, 103)
	closes = append(closes, 106.2)
	// Bars 22-23: further rise, high-water 112.
	opens = append(opens, 106)
	closes = append(closes, 112)
	opens = append(opens, 112)
	closes = append(closes, 112)
	// Bar 24: close at 107. Trailing stop 112*(1-0.04)=107.52 fires; the
	// hard stop 103*0.98=100.94 does not.
	opens = append(opens, 110)
	closes = append(closes, 107)

	s := &PyramidAdd{}
	view := NewView(pyramidBars(opens, closes))
	require.NoError(t, s.Init(view, nil))

	var actions []Action
	for i := 0; i < view.Len(); i++ {
		view.Advance(i)
		d := s.OnBar(i)
		actions = append(actions, d.Action)
		switch d.Action {
		case ActionBuy:
			assert.InDelta(t, 0.05, d.EquityFraction, 1e-12, "pyramid buys size by fraction")
			s.NotifyFill(Fill{Side: SideBuy, Price: view.Close(i), BarIndex: i})
		case ActionSell:
			s.NotifyFill(Fill{Side: SideSell, Price: view.Close(i), BarIndex: i})
		}
	}

	assert.Equal(t, ActionBuy, actions[20], "gap-up entry")
	assert.Equal(t, ActionBuy, actions[21], "add on advance past threshold")
	assert.Equal(t, ActionSell, actions[24], "trailing stop closes the position")
}

func TestPyramidHardStopWhenNoRunUp(t *testing.T) {
	opens := make([]float64, 0, 24)
	closes := make([]float64, 0, 24)
	for i := 0; i < 20; i++ {
		opens = append(opens, 100)
		closes = append(closes, 100)
	}
	opens = append(opens, 102) // gap-up entry at close 103
	closes = append(closes, 103)
	// Immediate slide: close 100.8 < 103*0.98 = 100.94 breaches the hard
	// stop. High-water is 103, trailing 103*0.96=98.88 has not fired.
	opens = append(opens, 102)
	closes = append(closes, 100.8)

	s := &PyramidAdd{}
	view := NewView(pyramidBars(opens, closes))
	require.NoError(t, s.Init(view, nil))

	var sold bool
	for i := 0; i < view.Len(); i++ {
		view.Advance(i)
		d := s.OnBar(i)
		switch d.Action {
		case ActionBuy:
			s.NotifyFill(Fill{Side: SideBuy, Price: view.Close(i), BarIndex: i})
		case ActionSell:
			sold = true
			assert.Equal(t, 21, i, "hard stop fires on the slide bar")
		}
	}
	assert.True(t, sold)
}

func TestCandlestickHammerWithConfirmation(t *testing.T) {
	n := 12
	bars := make([]market.Bar, 0, n)
	price := 100.0
	mk := func(open, high, low, close float64) market.Bar {
		b := market.Bar{
			Timestamp: testutils.Anchor.AddDate(0, 0, len(bars)),
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(close),
			Volume:    decimal.NewFromInt(10_000),
			Amount:    decimal.NewFromFloat(close * 10_000),
		}
		return b
	}
	for i := 0; i < 6; i++ { // mild downtrend
		bars = append(bars, mk(price, price+0.5, price-1.5, price-1))
		price -= 1
	}
	// Hammer: small body near the top, long lower shadow.
	bars = append(bars, mk(price, price+0.3, price-5, price+0.2))
	// Confirmation window: closes recover above the hammer close.
	bars = append(bars, mk(price+0.2, price+1.5, price, price+1))
	bars = append(bars, mk(price+1, price+2.5, price+0.8, price+2))
	bars = append(bars, mk(price+2, price+3.5, price+1.8, price+3))
	bars = append(bars, mk(price+3, price+4.5, price+2.8, price+4))
	bars = append(bars, mk(price+4, price+5.5, price+3.8, price+5))

	s := &Candlestick{}
	view := NewView(bars)
	require.NoError(t, s.Init(view, Params{"pattern_type": "hammer"}))

	var boughtAt = -1
	for i := 0; i < view.Len(); i++ {
		view.Advance(i)
		d := s.OnBar(i)
		if d.Action == ActionBuy {
			boughtAt = i
			s.NotifyFill(Fill{Side: SideBuy, Price: view.Close(i), BarIndex: i})
		}
	}
	assert.Equal(t, 8, boughtAt, "buy lands after the confirmation window")
}

func TestCandlestickDojiRoundTrip(t *testing.T) {
	mk := func(i int, open, high, low, close float64) market.Bar {
		return market.Bar{
			Timestamp: testutils.Anchor.AddDate(0, 0, i),
			Open:      decimal.NewFromFloat(open),
			High:      decimal.NewFromFloat(high),
			Low:       decimal.NewFromFloat(low),
			Close:     decimal.NewFromFloat(close),
			Volume:    decimal.NewFromInt(10_000),
			Amount:    decimal.NewFromFloat(close * 10_000),
		}
	}
	bars := []market.Bar{
		mk(0, 100, 100.5, 99.5, 100),
		mk(1, 100, 100.5, 99.5, 100),
		mk(2, 100, 100.5, 99.5, 100),
		mk(3, 100, 100.5, 99.5, 100),
		// Dragonfly doji: hairline body, deep lower shadow.
		mk(4, 100, 100.4, 95, 100.1),
		// Confirmation close above the doji close.
		mk(5, 100.2, 101.2, 100, 101),
		// Gravestone doji: hairline body, tall upper shadow.
		mk(6, 102, 107, 101.8, 102.1),
	}

	s := &Candlestick{}
	view := NewView(bars)
	require.NoError(t, s.Init(view, Params{"pattern_type": "doji", "confirmation_period": 1}))

	var actions []Action
	for i := 0; i < view.Len(); i++ {
		view.Advance(i)
		d := s.OnBar(i)
		actions = append(actions, d.Action)
		switch d.Action {
		case ActionBuy:
			s.NotifyFill(Fill{Side: SideBuy, Price: view.Close(i), BarIndex: i})
		case ActionSell:
			s.NotifyFill(Fill{Side: SideSell, Price: view.Close(i), BarIndex: i})
		}
	}

	assert.Equal(t, ActionBuy, actions[5], "buy lands on the confirmation bar")
	assert.Equal(t, ActionSell, actions[6], "gravestone doji closes the position")
}

func TestTrendFollowingEntersStrongTrendOnly(t *testing.T) {
	// Flat forever: no entry (ADX undefined direction, fast==slow).
	flat := testutils.FlatCloses(120, 100)
	s := &TrendFollowing{}
	buys, _ := runStrategy(t, s, NewView(testutils.BarsFromCloses(flat)), nil)
	assert.Zero(t, buys)

	// Sustained ramp: fast>slow, ADX saturates, close above fast MA.
	closes := append(testutils.FlatCloses(40, 100), testutils.RampCloses(80, 100, 2)...)
	s2 := &TrendFollowing{}
	buys2, _ := runStrategy(t, s2, NewView(testutils.BarsFromCloses(closes)), nil)
	assert.GreaterOrEqual(t, buys2, 1)
}

func TestVCPNeedsContractionAndBreakout(t *testing.T) {
	// A plain ramp never shows a volatility contraction; no entries.
	closes := testutils.RampCloses(120, 100, 1)
	s := &VCP{}
	buys, _ := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)
	assert.Zero(t, buys)
}

func TestSwingBuysPullbackInUptrend(t *testing.T) {
	// Uptrend, then a pullback of ~6% from the swing high while the trend
	// filter still holds.
	closes := append(testutils.FlatCloses(10, 100), testutils.RampCloses(40, 100, 1.5)...)
	top := closes[len(closes)-1]
	closes = append(closes, top*0.97, top*0.94, top*0.94)

	s := &Swing{}
	buys, _ := runStrategy(t, s, NewView(testutils.BarsFromCloses(closes)), nil)
	assert.GreaterOrEqual(t, buys, 1)
}
