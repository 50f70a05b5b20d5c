package indicator

import "math"

// Bollinger returns the middle band (SMA), upper band (mid + mult*std)
// and lower band (mid - mult*std), where std is the population standard
// deviation over the same trailing window. All three are undefined
// wherever the SMA is undefined. A zero-variance window is valid: the
// bands collapse onto the middle.
func Bollinger(closes []float64, period int, mult float64) (mid, upper, lower []float64) {
	n := len(closes)
	mid = SMA(closes, period)
	upper = undefinedSeries(n)
	lower = undefinedSeries(n)
	if period <= 0 || n < period {
		return mid, upper, lower
	}

	for i := period - 1; i < n; i++ {
		m := mid[i]
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - m
			variance += d * d
		}
		variance /= float64(period)
		// Tiny negative residue from float cancellation would NaN the sqrt.
		if variance < 0 {
			variance = 0
		}
		std := math.Sqrt(variance)
		upper[i] = m + mult*std
		lower[i] = m - mult*std
	}
	return mid, upper, lower
}
