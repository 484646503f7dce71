package strategy

import (
	"fmt"

	"github.com/quantfarm/strata/internal/indicator"
)

// Candlestick buys on bullish reversal patterns (hammer, bullish engulfing,
// dragonfly doji) after a short price confirmation and sells on bearish
// patterns (shooting star, bearish engulfing, gravestone doji) or a fixed
// stop. The pattern_type parameter restricts which patterns are traded:
// "hammer", "engulfing", "doji" or "all".
type Candlestick struct {
	tracker
	view *View

	patternType        string
	confirmationPeriod int
	minBodyRatio       float64
	minShadowRatio     float64

	// Pending bullish pattern awaiting price confirmation.
	candidateBar   int
	candidateClose float64
}

// Name implements Strategy.
func (s *Candlestick) Name() string { return "candlestick" }

// Init implements Strategy.
func (s *Candlestick) Init(view *View, params Params) error {
	if err := params.checkKnown(s.Name(),
		"pattern_type", "confirmation_period", "min_body_ratio", "min_shadow_ratio"); err != nil {
		return err
	}
	s.patternType = params.String("pattern_type", "all")
	s.confirmationPeriod = params.Int("confirmation_period", 2)
	s.minBodyRatio = params.Float("min_body_ratio", 0.3)
	s.minShadowRatio = params.Float("min_shadow_ratio", 2.0)
	switch s.patternType {
	case "all", "hammer", "engulfing", "doji":
	default:
		return fmt.Errorf("strategy %s: pattern_type %q not recognized", s.Name(), s.patternType)
	}
	if s.confirmationPeriod <= 0 {
		return fmt.Errorf("strategy %s: confirmation_period must be positive", s.Name())
	}

	s.view = view
	s.candidateBar = -1
	return nil
}

// MinBars implements Strategy.
func (s *Candlestick) MinBars() int {
	// Engulfing needs the previous bar; confirmation needs its own window.
	return s.confirmationPeriod + 2
}

// candle is one bar's shape, decomposed for pattern tests.
type candle struct {
	open, high, low, close         float64
	body, upperShadow, lowerShadow float64
	rng                            float64
}

func (s *Candlestick) candleAt(i int) candle {
	o, h, l, c := s.view.Open(i), s.view.High(i), s.view.Low(i), s.view.Close(i)
	body := c - o
	if body < 0 {
		body = -body
	}
	top, bottom := o, c
	if c > o {
		top, bottom = c, o
	}
	return candle{
		open: o, high: h, low: l, close: c,
		body:        body,
		upperShadow: h - top,
		lowerShadow: bottom - l,
		rng:         h - l,
	}
}

// isHammer reports a small body near the top of the range with a long lower
// shadow.
func (s *Candlestick) isHammer(c candle) bool {
	if c.rng <= 0 || c.body <= 0 {
		return false
	}
	return c.body/c.rng <= s.minBodyRatio &&
		c.lowerShadow >= c.body*s.minShadowRatio &&
		c.upperShadow <= c.body
}

// isShootingStar is the hammer's bearish mirror: long upper shadow, small
// body near the bottom of the range.
func (s *Candlestick) isShootingStar(c candle) bool {
	if c.rng <= 0 || c.body <= 0 {
		return false
	}
	return c.body/c.rng <= s.minBodyRatio &&
		c.upperShadow >= c.body*s.minShadowRatio &&
		c.lowerShadow <= c.body
}

// isBullishEngulfing reports a green body that wholly engulfs the previous
// red body.
func isBullishEngulfing(prev, cur candle) bool {
	return prev.close < prev.open &&
		cur.close > cur.open &&
		cur.open <= prev.close &&
		cur.close >= prev.open
}

func isBearishEngulfing(prev, cur candle) bool {
	return prev.close > prev.open &&
		cur.close < cur.open &&
		cur.open >= prev.close &&
		cur.close <= prev.open
}

// dojiMaxBodyRatio classifies a bar as a doji: the body covers at most this
// fraction of the high-low range.
const dojiMaxBodyRatio = 0.10

// isBullishDoji reports a dragonfly-leaning doji: a near-absent body with the
// lower shadow dominating the upper one.
func isBullishDoji(c candle) bool {
	if c.rng <= 0 {
		return false
	}
	return c.body/c.rng <= dojiMaxBodyRatio && c.lowerShadow > c.upperShadow
}

// isBearishDoji is the gravestone mirror: the upper shadow dominates.
func isBearishDoji(c candle) bool {
	if c.rng <= 0 {
		return false
	}
	return c.body/c.rng <= dojiMaxBodyRatio && c.upperShadow > c.lowerShadow
}

// wants reports whether the configured pattern_type trades the given pattern.
func (s *Candlestick) wants(pattern string) bool {
	return s.patternType == "all" || s.patternType == pattern
}

func (s *Candlestick) bullishAt(i int) bool {
	cur := s.candleAt(i)
	if s.wants("hammer") && s.isHammer(cur) {
		return true
	}
	if s.wants("engulfing") && isBullishEngulfing(s.candleAt(i-1), cur) {
		return true
	}
	return s.wants("doji") && isBullishDoji(cur)
}

func (s *Candlestick) bearishAt(i int) bool {
	cur := s.candleAt(i)
	if s.wants("hammer") && s.isShootingStar(cur) {
		return true
	}
	if s.wants("engulfing") && isBearishEngulfing(s.candleAt(i-1), cur) {
		return true
	}
	return s.wants("doji") && isBearishDoji(cur)
}

// OnBar implements Strategy.
func (s *Candlestick) OnBar(i int) Decision {
	if i < s.MinBars() {
		return Hold()
	}
	close := s.view.Close(i)

	if s.canSell() {
		if s.bearishAt(i) {
			return s.submit(Sell())
		}
		if close <= s.firstEntry()*0.95 {
			return s.submit(Sell())
		}
		return Hold()
	}

	if !s.canBuy() {
		return Hold()
	}

	// Resolve a pending pattern first: the close must exceed the pattern
	// bar's close after the confirmation window, otherwise the setup is
	// abandoned.
	if s.candidateBar >= 0 {
		if i-s.candidateBar >= s.confirmationPeriod {
			confirmed := close > s.candidateClose
			s.candidateBar = -1
			if confirmed && indicator.Defined(close) {
				return s.submit(Buy())
			}
		}
		return Hold()
	}

	if s.bullishAt(i) {
		s.candidateBar = i
		s.candidateClose = close
	}
	return Hold()
}

// Finalize implements Strategy.
func (s *Candlestick) Finalize() string {
	return fmt.Sprintf("%s pattern=%s confirmation=%d",
		s.summary(s.Name()), s.patternType, s.confirmationPeriod)
}
