package optimize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfarm/strata/internal/strategy"
)

func TestDefaultGridsCoverEveryStrategy(t *testing.T) {
	grids := DefaultGrids()
	for _, name := range strategy.Names() {
		_, ok := grids[name]
		assert.True(t, ok, "no grid for %s", name)
	}
	assert.Len(t, grids, len(strategy.Names()))
}

func TestExpandCounts(t *testing.T) {
	grids := DefaultGrids()
	assert.Len(t, Expand(grids["macross"]), 16)         // 4*4
	assert.Len(t, Expand(grids["macd"]), 27)            // 3^3
	assert.Len(t, Expand(grids["bollinger"]), 9)        // 3*3
	assert.Len(t, Expand(grids["mean_reversion"]), 12)  // 3*4
	assert.Len(t, Expand(grids["vcp"]), 81)             // 3^4
	assert.Len(t, Expand(grids["candlestick"]), 108)    // 4*3^3
	assert.Len(t, Expand(grids["swing"]), 243)          // 3^5
	assert.Len(t, Expand(grids["trend_following"]), 243)
	assert.Len(t, Expand(grids["pyramid_add"]), 243)
}

func TestExpandDeterministicOrder(t *testing.T) {
	grid := Grid{
		"b": {1, 2},
		"a": {"x", "y"},
	}
	combos := Expand(grid)
	require.Len(t, combos, 4)
	// Keys sorted, rightmost key cycles fastest.
	assert.Equal(t, strategy.Params{"a": "x", "b": 1}, combos[0])
	assert.Equal(t, strategy.Params{"a": "x", "b": 2}, combos[1])
	assert.Equal(t, strategy.Params{"a": "y", "b": 1}, combos[2])
	assert.Equal(t, strategy.Params{"a": "y", "b": 2}, combos[3])

	again := Expand(grid)
	assert.Equal(t, combos, again)
}

func TestExpandEmptyGrid(t *testing.T) {
	combos := Expand(nil)
	require.Len(t, combos, 1)
	assert.Empty(t, combos[0])
}

func TestLoadGridsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grids.yaml")
	content := `macross:
  fast_period: [3, 7]
  slow_period: [21]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	grids, err := LoadGrids(path)
	require.NoError(t, err)

	combos := Expand(grids["macross"])
	assert.Len(t, combos, 2)

	// Untouched strategies keep their defaults.
	assert.Len(t, Expand(grids["macd"]), 27)
}

func TestLoadGridsUnknownStrategy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grids.yaml")
	require.NoError(t, os.WriteFile(path, []byte("alchemy:\n  lead: [1]\n"), 0o644))

	_, err := LoadGrids(path)
	assert.ErrorIs(t, err, strategy.ErrUnknownStrategy)
}

func TestLoadGridsMissingFile(t *testing.T) {
	_, err := LoadGrids(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
