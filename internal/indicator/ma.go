package indicator

import "math"

// SMA computes the simple moving average of a trailing window. Windows that
// contain undefined input (warm-up padding of a derived series) stay NaN.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average, seeded with the SMA of the
// first window. Leading NaN padding in the input is preserved.
func EMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 {
		return out
	}
	first := firstDefined(values)
	if first < 0 || len(values)-first < period {
		return out
	}

	seedEnd := first + period - 1
	sum := 0.0
	for i := first; i <= seedEnd; i++ {
		sum += values[i]
	}
	out[seedEnd] = sum / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := seedEnd + 1; i < len(values); i++ {
		out[i] = (values[i]-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// Highest computes the rolling maximum of a trailing window.
func Highest(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		max := math.Inf(-1)
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				ok = false
				break
			}
			if values[j] > max {
				max = values[j]
			}
		}
		if ok {
			out[i] = max
		}
	}
	return out
}

// Lowest computes the rolling minimum of a trailing window.
func Lowest(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		min := math.Inf(1)
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				ok = false
				break
			}
			if values[j] < min {
				min = values[j]
			}
		}
		if ok {
			out[i] = min
		}
	}
	return out
}

// StdDev computes the rolling population standard deviation of a trailing
// window.
func StdDev(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	mean := SMA(values, period)
	for i := period - 1; i < len(values); i++ {
		if !Defined(mean[i]) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := values[j] - mean[i]
			variance += diff * diff
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}

func firstDefined(values []float64) int {
	for i, v := range values {
		if Defined(v) {
			return i
		}
	}
	return -1
}
