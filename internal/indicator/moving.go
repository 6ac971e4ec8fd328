package indicator

// seed averages the first period prices. ok is false when there are
// fewer prices than the period.
func seed(prices []float64, period int) (avg float64, ok bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	var sum float64
	for _, p := range prices[:period] {
		sum += p
	}
	return sum / float64(period), true
}

// SMA returns the simple moving average of prices, one value per window,
// so the result has len(prices)-period+1 entries. It is empty when there
// is not enough data.
func SMA(prices []float64, period int) []float64 {
	first, ok := seed(prices, period)
	if !ok {
		return []float64{}
	}

	out := make([]float64, 1, len(prices)-period+1)
	out[0] = first
	window := first * float64(period)
	for i := period; i < len(prices); i++ {
		window += prices[i] - prices[i-period]
		out = append(out, window/float64(period))
	}
	return out
}

// EMA returns the exponential moving average of prices, seeded with the
// SMA of the first window.
func EMA(prices []float64, period int) []float64 {
	ema, ok := seed(prices, period)
	if !ok {
		return []float64{}
	}

	k := 2.0 / float64(period+1)
	out := make([]float64, 1, len(prices)-period+1)
	out[0] = ema
	for _, p := range prices[period:] {
		ema += (p - ema) * k
		out = append(out, ema)
	}
	return out
}
