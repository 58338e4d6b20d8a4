package indicators

// EMA calculates the exponential moving average.
// Unlike SMA there is no warm-up gap: the first value is seeded with the
// first price and every later value follows the recurrence
// ema[i] = ema[i-1] + α·(price[i] - ema[i-1]) with α = 2/(period+1).
func (c *Calculator) EMA(prices []float64, period int) []float64 {
	ema := placeholders(len(prices))
	if len(prices) == 0 || period <= 0 {
		return ema
	}

	multiplier := 2.0 / (float64(period) + 1)
	ema[0] = c.round(prices[0])
	for i := 1; i < len(prices); i++ {
		ema[i] = c.round((prices[i]-ema[i-1])*multiplier + ema[i-1])
	}
	return ema
}
