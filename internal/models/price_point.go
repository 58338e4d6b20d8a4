package models

import (
	"fmt"
	"time"
)

// MaxSymbolLength is the longest ticker accepted at the service boundary
const MaxSymbolLength = 10

// PricePoint represents one price/volume observation for an instrument.
// Series handed to the analysis engine must hold a single symbol sorted
// ascending by timestamp; the engine assumes this and does not check it.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    uint64    `json:"volume"`
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
	Open      *float64  `json:"open,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
}

// NewOHLCVPoint creates a bar observation; the close becomes the point's price
func NewOHLCVPoint(symbol string, ts time.Time, open, high, low, closePrice float64, volume uint64) PricePoint {
	return PricePoint{
		Symbol:    symbol,
		Timestamp: ts,
		Price:     closePrice,
		Volume:    volume,
		Open:      &open,
		High:      &high,
		Low:       &low,
	}
}

// Validate checks a point received from an external source.
// The analysis engine never calls this; ingestion adapters do.
func (p PricePoint) Validate(now time.Time) error {
	if !IsValidSymbol(p.Symbol) {
		return fmt.Errorf("invalid symbol: %q", p.Symbol)
	}
	if p.Price <= 0 {
		return fmt.Errorf("price must be positive for %s: %v", p.Symbol, p.Price)
	}
	if p.Timestamp.After(now) {
		return fmt.Errorf("timestamp cannot be in the future for %s: %s", p.Symbol, p.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// IsValidSymbol reports whether s looks like a ticker: 1-10 letters, digits or dots
func IsValidSymbol(s string) bool {
	if s == "" || len(s) > MaxSymbolLength {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
		default:
			return false
		}
	}
	return true
}

// Prices extracts the price column of a series
func Prices(points []PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}

// Timestamps extracts the timestamp column of a series
func Timestamps(points []PricePoint) []time.Time {
	ts := make([]time.Time, len(points))
	for i, p := range points {
		ts[i] = p.Timestamp
	}
	return ts
}

// TimeRange is an inclusive window of time used for history queries
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeRange creates a TimeRange
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Duration returns the length of the range
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Contains reports whether t falls inside the range, bounds included
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
