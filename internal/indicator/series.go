package indicator

// Moving average kinds accepted by Moving.
const (
	KindSMA = "sma"
	KindEMA = "ema"
)

// Moving dispatches to SMA or EMA by kind. Unknown kinds fall back to SMA.
func Moving(kind string, prices []float64, period int) []float64 {
	if kind == KindEMA {
		return EMA(prices, period)
	}
	return SMA(prices, period)
}

// Last returns the most recent value of series, or 0 if it is empty.
func Last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// Tail returns the last n values, or all of them when there are fewer.
func Tail(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
