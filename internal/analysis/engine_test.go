package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/market-analytics/internal/indicators"
	"github.com/trogers1052/market-analytics/internal/models"
)

var baseTime = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func series(symbol string, prices ...float64) []models.PricePoint {
	points := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		points[i] = models.PricePoint{
			Symbol:    symbol,
			Timestamp: baseTime.AddDate(0, 0, i),
			Price:     p,
			Volume:    uint64(1000 + i*100),
		}
	}
	return points
}

func rising(n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	return prices
}

func fixedEngine() *Engine {
	e := NewEngine()
	e.now = func() time.Time { return baseTime.Add(72 * time.Hour) }
	return e
}

func TestAnalyzeEmptySeries(t *testing.T) {
	_, err := NewEngine().Analyze(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewEngine().Analyze([]models.PricePoint{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAnalyzeShortSeries(t *testing.T) {
	engine := fixedEngine()

	result, err := engine.Analyze(series("AAPL", 100, 101, 102, 103, 104))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", result.Symbol)
	assert.Equal(t, baseTime.Add(72*time.Hour), result.ComputedAt)
	require.Len(t, result.Indicators, 4)
	assert.Contains(t, []models.SignalType{models.SignalBuy, models.SignalSell, models.SignalHold}, result.Recommendation)

	names := make([]string, len(result.Indicators))
	for i, s := range result.Indicators {
		names[i] = s.Name
		assert.Len(t, s.Values, 5)
		assert.Len(t, s.Timestamps, 5)
	}
	assert.Equal(t, []string{"RSI(14)", "SMA(20)", "SMA(50)", "MACD"}, names)

	// only MACD has values this early
	assert.Equal(t, 25.0, result.Confidence)
}

func TestAnalyzeIndicatorSeries(t *testing.T) {
	result, err := fixedEngine().Analyze(series("MSFT", rising(60)...))
	require.NoError(t, err)

	rsi, ok := result.Indicator(models.SeriesRSI14)
	require.True(t, ok)
	require.Len(t, rsi.Signals, 60)
	for i := 0; i < RSIPeriod; i++ {
		assert.Zero(t, rsi.Values[i])
		assert.Equal(t, models.SignalBuy, rsi.Signals[i], "placeholder reads below the oversold line")
	}
	for i := RSIPeriod; i < 60; i++ {
		assert.Equal(t, 100.0, rsi.Values[i])
		assert.Equal(t, models.SignalSell, rsi.Signals[i])
	}

	for _, name := range []string{models.SeriesSMA20, models.SeriesSMA50, models.SeriesMACD} {
		s, ok := result.Indicator(name)
		require.True(t, ok, name)
		assert.Empty(t, s.Signals, name)
		assert.NotNil(t, s.Signals, name)
	}

	sma20, _ := result.Indicator(models.SeriesSMA20)
	assert.Zero(t, sma20.Values[18])
	assert.Equal(t, 109.5, sma20.Values[19])

	_, ok = result.Indicator("Bollinger")
	assert.False(t, ok)
}

func TestAnalyzeMonotonicSeries(t *testing.T) {
	result, err := fixedEngine().Analyze(series("NVDA", rising(50)...))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.LessOrEqual(t, result.Confidence, 100.0)
	assert.Equal(t, 100.0, result.Confidence)
	assert.Contains(t, []models.SignalType{models.SignalBuy, models.SignalSell, models.SignalHold}, result.Recommendation)

	assert.Zero(t, result.Risk.MaxDrawdown)
	assert.Nil(t, result.Risk.Beta)

	// RSI at 100 votes sell, rising MACD votes buy
	assert.Equal(t, models.SignalHold, result.Recommendation)
}

func TestAnalyzeUsesFirstSymbol(t *testing.T) {
	points := series("AAPL", 1, 2, 3)
	points[2].Symbol = "OTHER"

	result, err := NewEngine().Analyze(points)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", result.Symbol)
}

func TestAnalyzeSinglePoint(t *testing.T) {
	result, err := fixedEngine().Analyze(series("IBM", 150))
	require.NoError(t, err)

	assert.Zero(t, result.Risk.Volatility)
	assert.Zero(t, result.Risk.MaxDrawdown)
	assert.Nil(t, result.Risk.SharpeRatio)
	// RSI placeholder votes buy, MACD compared with itself votes sell
	assert.Equal(t, models.SignalHold, result.Recommendation)
	assert.Zero(t, result.Confidence)
}

func TestAnalyzePrecision(t *testing.T) {
	prices := []float64{10.123456, 10.234567, 10.345678}
	result, err := NewEngineWithPrecision(2).Analyze(series("X", prices...))
	require.NoError(t, err)
	assert.Equal(t, 2, NewEngineWithPrecision(2).Calculator().Precision())

	macd, ok := result.Indicator(models.SeriesMACD)
	require.True(t, ok)
	for _, v := range macd.Values {
		assert.Equal(t, indicators.RoundTo(v, 2), v)
	}
}

func TestRSISignal(t *testing.T) {
	tests := []struct {
		value float64
		want  models.SignalType
	}{
		{value: 0, want: models.SignalBuy},
		{value: 29.99, want: models.SignalBuy},
		{value: 30, want: models.SignalHold},
		{value: 50, want: models.SignalHold},
		{value: 70, want: models.SignalHold},
		{value: 70.01, want: models.SignalSell},
		{value: 100, want: models.SignalSell},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RSISignal(tt.value), "value %v", tt.value)
	}
}
