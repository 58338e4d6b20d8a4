package indicators

// SMA calculates the simple moving average over a rolling window.
// The first period-1 values are placeholders. The window is kept as a running
// sum so the cost is O(n) regardless of period.
func (c *Calculator) SMA(prices []float64, period int) []float64 {
	sma := placeholders(len(prices))
	if period <= 0 || len(prices) < period {
		return sma
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += prices[i]
	}
	sma[period-1] = c.round(sum / float64(period))

	for i := period; i < len(prices); i++ {
		sum = sum - prices[i-period] + prices[i]
		sma[i] = c.round(sum / float64(period))
	}
	return sma
}
