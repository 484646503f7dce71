package indicator

// RSI computes the relative strength index from a simple rolling mean of
// positive and negative deltas over the trailing period. A zero average loss
// yields 100 rather than a division error.
func RSI(closes []float64, period int) []float64 {
	out := nans(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	for i := period; i < len(closes); i++ {
		var gainSum, lossSum float64
		for j := i - period + 1; j <= i; j++ {
			gainSum += gains[j]
			lossSum += losses[j]
		}
		avgLoss := lossSum / float64(period)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		avgGain := gainSum / float64(period)
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// MACD computes the moving average convergence divergence: line, signal and
// histogram, each aligned with the input.
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, histogram []float64) {
	line = nans(len(closes))
	signalLine = nans(len(closes))
	histogram = nans(len(closes))
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return line, signalLine, histogram
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)
	for i := range closes {
		if Defined(fastEMA[i]) && Defined(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}

	signalLine = EMA(line, signal)
	for i := range closes {
		if Defined(line[i]) && Defined(signalLine[i]) {
			histogram[i] = line[i] - signalLine[i]
		}
	}
	return line, signalLine, histogram
}

// Stochastic computes the KDJ oscillator: raw %K over kPeriod smoothed by
// dPeriod into K, K smoothed again into D, and J = 3K - 2D. A flat
// highest==lowest window yields the neutral 50 instead of dividing by zero.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d, j []float64) {
	k = nans(len(closes))
	d = nans(len(closes))
	j = nans(len(closes))
	if kPeriod <= 0 || dPeriod <= 0 || len(closes) < kPeriod {
		return k, d, j
	}

	hh := Highest(highs, kPeriod)
	ll := Lowest(lows, kPeriod)
	raw := nans(len(closes))
	for i := kPeriod - 1; i < len(closes); i++ {
		if !Defined(hh[i]) || !Defined(ll[i]) {
			continue
		}
		span := hh[i] - ll[i]
		if span == 0 {
			raw[i] = 50
			continue
		}
		raw[i] = 100 * (closes[i] - ll[i]) / span
	}

	k = SMA(raw, dPeriod)
	d = SMA(k, dPeriod)
	for i := range closes {
		if Defined(k[i]) && Defined(d[i]) {
			j[i] = 3*k[i] - 2*d[i]
		}
	}
	return k, d, j
}
