package indicators

// HistogramScale multiplies the MACD histogram for display. Consumers rely
// on the scaled values, so it must stay at 1000.
const HistogramScale = 1000.0

// MACDResult holds the three MACD output lines, each aligned to the input
type MACDResult struct {
	Line      []float64 `json:"macd"`
	Signal    []float64 `json:"signal"`
	Histogram []float64 `json:"histogram"`
}

// MACD calculates Moving Average Convergence Divergence.
// The line is EMA(fast) - EMA(slow), the signal is EMA(line, signal) and the
// histogram is (line - signal) scaled by HistogramScale.
func (c *Calculator) MACD(prices []float64, fast, slow, signal int) MACDResult {
	emaFast := c.EMA(prices, fast)
	emaSlow := c.EMA(prices, slow)

	line := placeholders(len(prices))
	for i := range prices {
		line[i] = c.round(emaFast[i] - emaSlow[i])
	}

	signalLine := c.EMA(line, signal)
	histogram := placeholders(len(prices))
	for i := range prices {
		histogram[i] = c.round((line[i] - signalLine[i]) * HistogramScale)
	}

	return MACDResult{
		Line:      line,
		Signal:    signalLine,
		Histogram: histogram,
	}
}
