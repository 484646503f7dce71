package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/strata/internal/testutils"
)

func TestViewCursorGuard(t *testing.T) {
	bars := testutils.BarsFromCloses([]float64{100, 101, 102, 103})
	v := NewView(bars)

	v.Advance(1)
	assert.InDelta(t, 101, v.Close(1), 1e-9)
	assert.InDelta(t, 100, v.Close(0), 1e-9)

	assert.Panics(t, func() { v.Close(2) }, "reading past the cursor is a look-ahead")
	assert.Panics(t, func() { v.Close(-1) })
	assert.Panics(t, func() { v.Close(10) })
}

func TestViewSeriesAccessors(t *testing.T) {
	bars := testutils.BarsFromCloses([]float64{100, 101, 102})
	v := NewView(bars)

	require.Len(t, v.CloseSeries(), 3)
	require.Len(t, v.OpenSeries(), 3)
	require.Len(t, v.HighSeries(), 3)
	require.Len(t, v.LowSeries(), 3)
	require.Len(t, v.VolumeSeries(), 3)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, -1, v.Cursor())
}
