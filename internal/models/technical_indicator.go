package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Indicator series names produced by the analysis engine
const (
	SeriesRSI14 = "RSI(14)"
	SeriesSMA20 = "SMA(20)"
	SeriesSMA50 = "SMA(50)"
	SeriesMACD  = "MACD"
)

// Stored indicator type constants
const (
	IndicatorRSI14      = "RSI_14"
	IndicatorMACD       = "MACD"
	IndicatorMACDSignal = "MACD_SIGNAL"
	IndicatorMACDHist   = "MACD_HIST"
	IndicatorSMA20      = "SMA_20"
	IndicatorSMA50      = "SMA_50"
	IndicatorEMA12      = "EMA_12"
	IndicatorEMA26      = "EMA_26"
	IndicatorBBUpper    = "BB_UPPER"
	IndicatorBBMiddle   = "BB_MIDDLE"
	IndicatorBBLower    = "BB_LOWER"
)

// DefaultTimeframe is used when a stored indicator has no timeframe set
const DefaultTimeframe = "daily"

var seriesIndicatorTypes = map[string]string{
	SeriesRSI14: IndicatorRSI14,
	SeriesSMA20: IndicatorSMA20,
	SeriesSMA50: IndicatorSMA50,
	SeriesMACD:  IndicatorMACD,
}

// IndicatorTypeForSeries maps an engine series name to its stored indicator type
func IndicatorTypeForSeries(name string) (string, bool) {
	t, ok := seriesIndicatorTypes[name]
	return t, ok
}

// TechnicalIndicator represents one stored indicator value
type TechnicalIndicator struct {
	ID            int             `json:"id"`
	Symbol        string          `json:"symbol"`
	Date          time.Time       `json:"date"`
	IndicatorType string          `json:"indicator_type"`
	Value         decimal.Decimal `json:"value"`
	Timeframe     string          `json:"timeframe"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TechnicalIndicatorsFromSeries flattens a series into storable rows.
// Placeholder points are skipped; series without a known type yield nothing.
func TechnicalIndicatorsFromSeries(symbol string, s IndicatorSeries) []*TechnicalIndicator {
	indicatorType, ok := IndicatorTypeForSeries(s.Name)
	if !ok {
		return nil
	}
	var rows []*TechnicalIndicator
	for i, v := range s.Values {
		if v == 0 || i >= len(s.Timestamps) {
			continue
		}
		rows = append(rows, &TechnicalIndicator{
			Symbol:        symbol,
			Date:          s.Timestamps[i],
			IndicatorType: indicatorType,
			Value:         decimal.NewFromFloat(v),
			Timeframe:     DefaultTimeframe,
		})
	}
	return rows
}
