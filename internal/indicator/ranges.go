package indicator

// AverageRange returns the mean high-low range of the last period bars, or
// 0 when there are fewer than period bars. highs and lows must be aligned.
func AverageRange(highs, lows []float64, period int) float64 {
	if period <= 0 || len(highs) < period || len(lows) != len(highs) {
		return 0
	}
	var sum float64
	for i := len(highs) - period; i < len(highs); i++ {
		sum += highs[i] - lows[i]
	}
	return sum / float64(period)
}

// Lowest returns the minimum of values, or 0 if it is empty.
func Lowest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	lo := values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
	}
	return lo
}

// Highest returns the maximum of values, or 0 if it is empty.
func Highest(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	hi := values[0]
	for _, v := range values[1:] {
		hi = max(hi, v)
	}
	return hi
}
