// Package analysis runs the indicator library over one instrument's price
// series, measures its risk, and fuses the readings into a recommendation.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/market-analytics/internal/indicators"
	"github.com/trogers1052/market-analytics/internal/models"
)

// ErrInvalidInput is returned when a series cannot be analyzed at all
var ErrInvalidInput = errors.New("invalid input")

// Indicator parameters used by Analyze
const (
	RSIPeriod        = 14
	SMAShortPeriod   = 20
	SMALongPeriod    = 50
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	RSIOverbought    = 70.0
	RSIOversold      = 30.0
)

// Engine analyzes price series. It is immutable after construction and
// safe for concurrent use.
type Engine struct {
	calc *indicators.Calculator
	now  func() time.Time
}

// NewEngine creates an Engine rounding to indicators.DefaultPrecision
func NewEngine() *Engine {
	return &Engine{
		calc: indicators.NewCalculator(),
		now:  time.Now,
	}
}

// NewEngineWithPrecision creates an Engine rounding to the given number of decimals
func NewEngineWithPrecision(precision int) *Engine {
	return &Engine{
		calc: indicators.NewCalculatorWithPrecision(precision),
		now:  time.Now,
	}
}

// Calculator exposes the engine's indicator calculator
func (e *Engine) Calculator() *indicators.Calculator { return e.calc }

// Analyze computes indicators, risk metrics and a recommendation for a
// single-symbol series sorted ascending by time. The symbol is taken from the
// first point. Only an empty series is an error.
func (e *Engine) Analyze(series []models.PricePoint) (*models.AnalysisResult, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no market data provided", ErrInvalidInput)
	}

	prices := models.Prices(series)
	timestamps := models.Timestamps(series)

	rsi := e.calc.RSI(prices, RSIPeriod)
	macd := e.calc.MACD(prices, MACDFastPeriod, MACDSlowPeriod, MACDSignalPeriod)

	indicatorSeries := []models.IndicatorSeries{
		{
			Name:       models.SeriesRSI14,
			Timestamps: timestamps,
			Values:     rsi,
			Signals:    rsiSignals(rsi),
		},
		{
			Name:       models.SeriesSMA20,
			Timestamps: timestamps,
			Values:     e.calc.SMA(prices, SMAShortPeriod),
			Signals:    []models.SignalType{},
		},
		{
			Name:       models.SeriesSMA50,
			Timestamps: timestamps,
			Values:     e.calc.SMA(prices, SMALongPeriod),
			Signals:    []models.SignalType{},
		},
		{
			Name:       models.SeriesMACD,
			Timestamps: timestamps,
			Values:     macd.Line,
			Signals:    []models.SignalType{},
		},
	}

	risk := ComputeRiskMetrics(prices)

	return &models.AnalysisResult{
		Symbol:         series[0].Symbol,
		ComputedAt:     e.now().UTC(),
		Indicators:     indicatorSeries,
		Risk:           risk,
		Recommendation: Recommend(indicatorSeries, risk),
		Confidence:     Confidence(indicatorSeries),
	}, nil
}

// RSISignal classifies one RSI reading
func RSISignal(value float64) models.SignalType {
	switch {
	case value > RSIOverbought:
		return models.SignalSell
	case value < RSIOversold:
		return models.SignalBuy
	default:
		return models.SignalHold
	}
}

func rsiSignals(values []float64) []models.SignalType {
	signals := make([]models.SignalType, len(values))
	for i, v := range values {
		signals[i] = RSISignal(v)
	}
	return signals
}
