package indicator

import "math"

// Bollinger computes Bollinger Bands: SMA(period) +/- k standard deviations.
func Bollinger(closes []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = SMA(closes, period)
	sd := StdDev(closes, period)
	upper = nans(len(closes))
	lower = nans(len(closes))
	for i := range closes {
		if Defined(middle[i]) && Defined(sd[i]) {
			upper[i] = middle[i] + k*sd[i]
			lower[i] = middle[i] - k*sd[i]
		}
	}
	return upper, middle, lower
}

// Bandwidth computes (upper-lower)/middle for Bollinger Bands. A zero middle
// band yields 0.
func Bandwidth(upper, middle, lower []float64) []float64 {
	out := nans(len(middle))
	for i := range middle {
		if !Defined(upper[i]) || !Defined(middle[i]) || !Defined(lower[i]) {
			continue
		}
		if middle[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (upper[i] - lower[i]) / middle[i]
	}
	return out
}

// PercentB computes (close-lower)/(upper-lower). A collapsed band yields 0.
func PercentB(closes, upper, lower []float64) []float64 {
	out := nans(len(closes))
	for i := range closes {
		if !Defined(upper[i]) || !Defined(lower[i]) {
			continue
		}
		span := upper[i] - lower[i]
		if span == 0 {
			out[i] = 0
			continue
		}
		out[i] = (closes[i] - lower[i]) / span
	}
	return out
}

// TrueRange computes the per-bar true range:
// max(high-low, |high-prevClose|, |low-prevClose|). The first bar has no
// previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the average true range as a rolling mean of the true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	return SMA(TrueRange(highs, lows, closes), period)
}

// ADX computes the average directional index from Wilder-smoothed +DM/-DM
// series. Values are NaN until 2*period-1 bars are available; a zero DI sum
// yields DX of 0.
func ADX(highs, lows, closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) < 2*period {
		return out
	}

	tr := TrueRange(highs, lows, closes)
	plusDM := make([]float64, len(closes))
	minusDM := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing, seeded with the sum of the first period deltas.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := nans(len(closes))
	dx[period] = directionalIndex(smPlus, smMinus, smTR)
	for i := period + 1; i < len(closes); i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		dx[i] = directionalIndex(smPlus, smMinus, smTR)
	}

	// ADX: Wilder-smoothed DX, seeded with the mean of the first period
	// defined DX values.
	seedEnd := 2*period - 1
	sum := 0.0
	for i := period; i <= seedEnd; i++ {
		sum += dx[i]
	}
	out[seedEnd] = sum / float64(period)
	for i := seedEnd + 1; i < len(closes); i++ {
		out[i] = (out[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return out
}

func directionalIndex(smPlus, smMinus, smTR float64) float64 {
	if smTR == 0 {
		return 0
	}
	plusDI := 100 * smPlus / smTR
	minusDI := 100 * smMinus / smTR
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}
