package analysis

import (
	"math"

	"github.com/trogers1052/market-analytics/internal/models"
)

// Risk assumptions
const (
	// TradingDaysPerYear annualizes per-observation figures. It assumes one
	// observation per trading day; intraday series will be misreported.
	TradingDaysPerYear = 252.0
	RiskFreeRate       = 0.02
)

// ComputeRiskMetrics measures volatility, drawdown and Sharpe ratio of a price
// sequence. Fewer than two prices yield zero volatility and drawdown with no
// Sharpe ratio. Beta is never computed because no benchmark is supplied.
func ComputeRiskMetrics(prices []float64) models.RiskMetrics {
	if len(prices) < 2 {
		return models.RiskMetrics{}
	}

	volatility := annualizedVolatility(simpleReturns(prices))

	metrics := models.RiskMetrics{
		Volatility:  volatility,
		MaxDrawdown: maxDrawdown(prices),
	}
	if volatility > 0 {
		sharpe := (annualizedReturn(prices) - RiskFreeRate) / volatility
		metrics.SharpeRatio = &sharpe
	}
	return metrics
}

func simpleReturns(prices []float64) []float64 {
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
	}
	return returns
}

// annualizedVolatility is the sample standard deviation (n-1) of returns
// scaled by sqrt(TradingDaysPerYear)
func annualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(TradingDaysPerYear)
}

func maxDrawdown(prices []float64) float64 {
	peak := prices[0]
	worst := 0.0
	for _, p := range prices[1:] {
		if p > peak {
			peak = p
		}
		if dd := (peak - p) / peak; dd > worst {
			worst = dd
		}
	}
	return worst
}

// annualizedReturn is a linear approximation, not a compounded growth rate
func annualizedReturn(prices []float64) float64 {
	first, last := prices[0], prices[len(prices)-1]
	return (last/first - 1) * TradingDaysPerYear / float64(len(prices))
}
