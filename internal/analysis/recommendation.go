package analysis

import (
	"github.com/trogers1052/market-analytics/internal/models"
)

// Fusion thresholds
const (
	HighVolatility   = 0.5
	DeepDrawdown     = 0.2
	macdVoteLookback = 9
)

// Recommend fuses the latest indicator readings and risk metrics into a
// single signal by counting buy and sell votes.
//
// RSI votes from its latest value only. MACD votes buy when its latest value
// is above the value macdVoteLookback positions from the end of the series,
// sell otherwise; this stands in for a signal-line crossover. Moving averages
// do not vote. High volatility halves the buy votes and a deep drawdown adds
// a sell vote. A tie is Hold.
func Recommend(series []models.IndicatorSeries, risk models.RiskMetrics) models.SignalType {
	buy, sell := 0, 0

	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		latest := s.Latest()

		switch s.Name {
		case models.SeriesRSI14:
			switch RSISignal(latest) {
			case models.SignalBuy:
				buy++
			case models.SignalSell:
				sell++
			}
		case models.SeriesMACD:
			earlier := s.Values[max(len(s.Values)-macdVoteLookback, 0)]
			if latest > earlier {
				buy++
			} else {
				sell++
			}
		}
	}

	if risk.Volatility > HighVolatility {
		buy /= 2
	}
	if risk.MaxDrawdown > DeepDrawdown {
		sell++
	}

	switch {
	case buy > sell:
		return models.SignalBuy
	case sell > buy:
		return models.SignalSell
	default:
		return models.SignalHold
	}
}

// Confidence is the share of series holding at least one non-placeholder
// value, in percent. It measures data availability, not signal agreement.
func Confidence(series []models.IndicatorSeries) float64 {
	available := 0
	for _, s := range series {
		if s.HasValue() {
			available++
		}
	}
	confidence := models.SafeDivide(float64(available), float64(len(series)), 0) * 100
	return min(max(confidence, 0), 100)
}
