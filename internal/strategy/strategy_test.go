package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/strata/internal/testutils"
)

func TestRegistryConstructsEveryStrategy(t *testing.T) {
	names := Names()
	require.Len(t, names, 11)

	for _, name := range names {
		s, err := New(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, s.Name())

		// Two instances never share state.
		other, err := New(name)
		require.NoError(t, err)
		assert.NotSame(t, s, other)
	}
}

func TestNewUnknownStrategy(t *testing.T) {
	_, err := New("momentum_magic")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestInitRejectsUnknownParameter(t *testing.T) {
	closes := testutils.RampCloses(100, 100, 1)
	view := NewView(testutils.BarsFromCloses(closes))

	for _, name := range Names() {
		s, err := New(name)
		require.NoError(t, err)
		err = s.Init(view, Params{"no_such_param": 42})
		assert.ErrorIs(t, err, ErrUnknownParameter, name)
	}
}

func TestParamsTypeCoercion(t *testing.T) {
	p := Params{"a": 5, "b": int64(6), "c": 7.0, "d": 2.5, "e": "x"}
	assert.Equal(t, 5, p.Int("a", 0))
	assert.Equal(t, 6, p.Int("b", 0))
	assert.Equal(t, 7, p.Int("c", 0))
	assert.InDelta(t, 2.5, p.Float("d", 0), 1e-12)
	assert.InDelta(t, 5, p.Float("a", 0), 1e-12)
	assert.Equal(t, "x", p.String("e", ""))
	assert.Equal(t, 9, p.Int("missing", 9))
	assert.Equal(t, "def", p.String("missing", "def"))
}

// runStrategy drives a strategy over a bar slice the way the engine does,
// filling every order at the decision bar's close.
func runStrategy(t *testing.T, s Strategy, view *View, params Params) (buys, sells int) {
	t.Helper()
	require.NoError(t, s.Init(view, params))
	for i := 0; i < view.Len(); i++ {
		view.Advance(i)
		d := s.OnBar(i)
		switch d.Action {
		case ActionBuy:
			buys++
			s.NotifyFill(Fill{Side: SideBuy, Price: view.Close(i), Quantity: 100, BarIndex: i})
		case ActionSell:
			sells++
			s.NotifyFill(Fill{Side: SideSell, Price: view.Close(i), Quantity: 100, BarIndex: i})
		}
	}
	return buys, sells
}

func TestEveryStrategyHoldsThroughWarmup(t *testing.T) {
	closes := testutils.DipAndRipCloses(60, 20, 40, 100, 0.3)
	bars := testutils.BarsFromCloses(closes)

	for _, name := range Names() {
		s, err := New(name)
		require.NoError(t, err)
		view := NewView(bars)
		require.NoError(t, s.Init(view, nil))

		min := s.MinBars()
		require.Greater(t, min, 0, name)
		for i := 0; i < min && i < view.Len(); i++ {
			view.Advance(i)
			d := s.OnBar(i)
			assert.Equal(t, ActionHold, d.Action, "%s decided at warm-up bar %d", name, i)
		}
	}
}

func TestEveryStrategySilentOnFlatSeries(t *testing.T) {
	closes := testutils.FlatCloses(200, 100)
	bars := testutils.BarsFromCloses(closes)

	for _, name := range Names() {
		s, err := New(name)
		require.NoError(t, err)
		buys, sells := runStrategy(t, s, NewView(bars), nil)
		assert.Zero(t, buys, "%s bought on a flat series", name)
		assert.Zero(t, sells, "%s sold on a flat series", name)
	}
}

func TestTrackerLifecycle(t *testing.T) {
	var tr tracker
	assert.True(t, tr.canBuy())
	assert.False(t, tr.canSell())

	tr.submit(Buy())
	assert.False(t, tr.canBuy(), "pending order blocks another submission")

	tr.NotifyFill(Fill{Side: SideBuy, Price: 100})
	assert.True(t, tr.canSell())
	assert.True(t, tr.canAdd())
	assert.False(t, tr.canBuy())
	assert.InDelta(t, 100, tr.firstEntry(), 1e-12)

	tr.observe(120)
	assert.InDelta(t, 120, tr.highWater, 1e-12)
	tr.observe(110)
	assert.InDelta(t, 120, tr.highWater, 1e-12)

	tr.submit(Buy())
	tr.NotifyFill(Fill{Side: SideBuy, Price: 115})
	assert.InDelta(t, 100, tr.firstEntry(), 1e-12)
	assert.InDelta(t, 115, tr.lastEntry(), 1e-12)

	tr.submit(Sell())
	tr.NotifyFill(Fill{Side: SideSell, Price: 110})
	assert.False(t, tr.canSell())
	assert.True(t, tr.canBuy())
	assert.Zero(t, tr.firstEntry(), "full exit clears entry memory")
	assert.Zero(t, tr.highWater)
}

func TestTrackerRejectClearsPendingOnly(t *testing.T) {
	var tr tracker
	tr.submit(Buy())
	tr.NotifyReject()
	assert.True(t, tr.canBuy())
	assert.False(t, tr.inPosition)
}
