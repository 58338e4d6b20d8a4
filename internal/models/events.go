package models

import "time"

// Event type constants
const (
	EventPriceBar          = "PRICE_BAR"
	EventAnalysisCompleted = "ANALYSIS_COMPLETED"
)

// PriceEvent represents a Kafka event carrying one price observation
type PriceEvent struct {
	EventType string     `json:"event_type"`
	Source    string     `json:"source"`
	Data      PricePoint `json:"data"`
	Timestamp time.Time  `json:"timestamp"`
}

// AnalysisEvent represents a Kafka event announcing a completed analysis
type AnalysisEvent struct {
	EventType      string        `json:"event_type"`
	Symbol         string        `json:"symbol"`
	Recommendation SignalType    `json:"recommendation"`
	Confidence     float64       `json:"confidence"`
	Risk           RiskMetrics   `json:"risk"`
	Latest         []LatestValue `json:"latest"`
	ComputedAt     time.Time     `json:"computed_at"`
	Timestamp      time.Time     `json:"timestamp"`
}

// LatestValue is the most recent reading of one indicator series
type LatestValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// NewAnalysisEvent builds the event published after an analysis run
func NewAnalysisEvent(r *AnalysisResult, now time.Time) AnalysisEvent {
	latest := make([]LatestValue, 0, len(r.Indicators))
	for _, s := range r.Indicators {
		latest = append(latest, LatestValue{Name: s.Name, Value: s.Latest()})
	}
	return AnalysisEvent{
		EventType:      EventAnalysisCompleted,
		Symbol:         r.Symbol,
		Recommendation: r.Recommendation,
		Confidence:     r.Confidence,
		Risk:           r.Risk,
		Latest:         latest,
		ComputedAt:     r.ComputedAt,
		Timestamp:      now,
	}
}
