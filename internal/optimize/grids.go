// Package optimize sweeps strategy parameter grids over historical data and
// ranks the resulting backtests.
package optimize

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/quantfarm/strata/internal/strategy"
)

// Grid maps parameter names to their candidate values.
type Grid map[string][]any

// Grids maps strategy names to their parameter grids.
type Grids map[string]Grid

// DefaultGrids returns the built-in parameter grids for every registered
// strategy.
func DefaultGrids() Grids {
	return Grids{
		"macross": {
			"fast_period": {5, 10, 15, 20},
			"slow_period": {20, 30, 40, 60},
		},
		"macd": {
			"fast_period":   {10, 12, 15},
			"slow_period":   {20, 26, 30},
			"signal_period": {7, 9, 12},
		},
		"rsi": {
			"period":     {10, 14, 20},
			"oversold":   {25, 30, 35},
			"overbought": {65, 70, 75},
		},
		"bollinger": {
			"period":    {15, 20, 25},
			"devfactor": {1.5, 2.0, 2.5},
		},
		"triple_ma": {
			"fast_period": {3, 5, 8},
			"mid_period":  {8, 10, 15},
			"slow_period": {15, 20, 30},
		},
		"mean_reversion": {
			"period":    {15, 20, 25},
			"threshold": {0.015, 0.02, 0.025, 0.03},
		},
		"vcp": {
			"lookback":           {15, 20, 25},
			"contraction_ratio":  {0.6, 0.7, 0.8},
			"volume_ratio":       {0.7, 0.8, 0.9},
			"breakout_threshold": {1.01, 1.02, 1.03},
		},
		"candlestick": {
			"pattern_type":        {"all", "hammer", "engulfing", "doji"},
			"confirmation_period": {1, 2, 3},
			"min_body_ratio":      {0.2, 0.3, 0.4},
			"min_shadow_ratio":    {1.5, 2.0, 2.5},
		},
		"swing": {
			"trend_period":   {15, 20, 25},
			"swing_period":   {8, 10, 12},
			"pullback_ratio": {0.03, 0.05, 0.07},
			"profit_target":  {0.08, 0.10, 0.12},
			"stop_loss":      {0.03, 0.05, 0.07},
		},
		"trend_following": {
			"fast_period":   {8, 10, 12},
			"slow_period":   {25, 30, 35},
			"adx_period":    {12, 14, 16},
			"adx_threshold": {20, 25, 30},
			"trailing_stop": {0.02, 0.03, 0.04},
		},
		"pyramid_add": {
			"initial_position_size":  {0.03, 0.05, 0.07},
			"stop_loss_pct":          {0.015, 0.02, 0.025},
			"add_position_threshold": {0.015, 0.02, 0.025},
			"ma_period":              {15, 20, 25},
			"high_open_threshold":    {0.005, 0.01, 0.015},
		},
	}
}

// LoadGrids reads per-strategy grid overrides from a YAML file and merges
// them over the defaults. A strategy present in the file replaces its default
// grid entirely; strategies absent from the file keep theirs.
func LoadGrids(path string) (Grids, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grids %s: %w", path, err)
	}
	var overrides Grids
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse grids %s: %w", path, err)
	}

	grids := DefaultGrids()
	for name, grid := range overrides {
		if _, ok := grids[name]; !ok {
			return nil, fmt.Errorf("grids %s: %q: %w", path, name, strategy.ErrUnknownStrategy)
		}
		grids[name] = grid
	}
	return grids, nil
}

// Expand produces every parameter combination of a grid, in deterministic
// order: keys sorted alphabetically, values cycled rightmost-fastest. An
// empty grid yields one empty combination.
func Expand(grid Grid) []strategy.Params {
	if len(grid) == 0 {
		return []strategy.Params{{}}
	}

	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 1
	for _, k := range keys {
		if len(grid[k]) == 0 {
			return nil
		}
		total *= len(grid[k])
	}

	combos := make([]strategy.Params, 0, total)
	indices := make([]int, len(keys))
	for {
		params := make(strategy.Params, len(keys))
		for ki, k := range keys {
			params[k] = grid[k][indices[ki]]
		}
		combos = append(combos, params)

		ki := len(keys) - 1
		for ki >= 0 {
			indices[ki]++
			if indices[ki] < len(grid[keys[ki]]) {
				break
			}
			indices[ki] = 0
			ki--
		}
		if ki < 0 {
			return combos
		}
	}
}
