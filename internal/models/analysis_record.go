package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AnalysisRecord is the stored summary of one analysis run
type AnalysisRecord struct {
	ID             string           `json:"id"`
	Symbol         string           `json:"symbol"`
	ComputedAt     time.Time        `json:"computed_at"`
	Recommendation string           `json:"recommendation"`
	Confidence     decimal.Decimal  `json:"confidence"`
	Volatility     decimal.Decimal  `json:"volatility"`
	SharpeRatio    *decimal.Decimal `json:"sharpe_ratio,omitempty"`
	MaxDrawdown    decimal.Decimal  `json:"max_drawdown"`
	Beta           *decimal.Decimal `json:"beta,omitempty"`
	IndicatorCount int              `json:"indicator_count"`
	BarCount       int              `json:"bar_count"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewAnalysisRecord summarizes a result for storage
func NewAnalysisRecord(r *AnalysisResult) *AnalysisRecord {
	rec := &AnalysisRecord{
		Symbol:         r.Symbol,
		ComputedAt:     r.ComputedAt,
		Recommendation: r.Recommendation.String(),
		Confidence:     decimal.NewFromFloat(r.Confidence),
		Volatility:     decimal.NewFromFloat(r.Risk.Volatility),
		MaxDrawdown:    decimal.NewFromFloat(r.Risk.MaxDrawdown),
		IndicatorCount: len(r.Indicators),
	}
	if r.Risk.SharpeRatio != nil {
		v := decimal.NewFromFloat(*r.Risk.SharpeRatio)
		rec.SharpeRatio = &v
	}
	if r.Risk.Beta != nil {
		v := decimal.NewFromFloat(*r.Risk.Beta)
		rec.Beta = &v
	}
	if len(r.Indicators) > 0 {
		rec.BarCount = len(r.Indicators[0].Values)
	}
	return rec
}
