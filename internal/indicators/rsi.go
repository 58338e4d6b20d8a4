package indicators

// RSI calculates the Relative Strength Index using Wilder's smoothing.
//
// The average gain and loss are seeded from the first period price changes,
// then smoothed as avg = (avg*(period-1) + change) / period. Indices below
// period are placeholders. A window without losses reads 100.
func (c *Calculator) RSI(prices []float64, period int) []float64 {
	rsi := placeholders(len(prices))
	if period <= 0 || period >= len(prices) {
		return rsi
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	p := float64(period)
	avgGain /= p
	avgLoss /= p

	for i := period; i < len(prices); i++ {
		rsi[i] = c.rsiValue(avgGain, avgLoss)

		if i == len(prices)-1 {
			break
		}
		gain, loss := 0.0, 0.0
		if change := prices[i+1] - prices[i]; change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}
	return rsi
}

func (c *Calculator) rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return c.round(100.0 - 100.0/(1.0+rs))
}
