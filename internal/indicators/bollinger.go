package indicators

import "math"

// Conventional band settings
const (
	DefaultBollingerPeriod = 20
	DefaultBollingerK      = 2.0
)

// BollingerResult holds the three bands, each aligned to the input
type BollingerResult struct {
	Upper  []float64 `json:"upper"`
	Middle []float64 `json:"middle"`
	Lower  []float64 `json:"lower"`
}

// Bollinger calculates Bollinger Bands: SMA(period) ± k standard deviations.
// The deviation is the population deviation of the trailing window (divided
// by period) measured around the rounded middle band.
func (c *Calculator) Bollinger(prices []float64, period int, k float64) BollingerResult {
	middle := c.SMA(prices, period)
	upper := placeholders(len(prices))
	lower := placeholders(len(prices))

	if period > 0 {
		for i := period - 1; i < len(prices); i++ {
			mean := middle[i]
			variance := 0.0
			for _, price := range prices[i-period+1 : i+1] {
				d := price - mean
				variance += d * d
			}
			std := math.Sqrt(variance / float64(period))

			upper[i] = c.round(mean + k*std)
			lower[i] = c.round(mean - k*std)
		}
	}

	return BollingerResult{
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
	}
}
