package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// SignalType is a trading signal attached to an indicator point or an analysis
type SignalType int

// Signal constants
const (
	SignalNone SignalType = iota
	SignalBuy
	SignalSell
	SignalHold
)

var signalNames = map[SignalType]string{
	SignalNone: "None",
	SignalBuy:  "Buy",
	SignalSell: "Sell",
	SignalHold: "Hold",
}

// String returns the wire name of the signal
func (s SignalType) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return "None"
}

// ParseSignalType converts a wire name back into a SignalType
func ParseSignalType(s string) (SignalType, error) {
	for sig, name := range signalNames {
		if name == s {
			return sig, nil
		}
	}
	return SignalNone, fmt.Errorf("unknown signal type: %q", s)
}

// MarshalJSON encodes the signal as its name
func (s SignalType) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a signal name
func (s *SignalType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("signal type must be a string: %w", err)
	}
	sig, err := ParseSignalType(name)
	if err != nil {
		return err
	}
	*s = sig
	return nil
}

// IndicatorSeries holds one computed indicator aligned to the input series.
// A value of 0.0 is the placeholder for "not enough history yet".
type IndicatorSeries struct {
	Name       string       `json:"name"`
	Timestamps []time.Time  `json:"timestamps"`
	Values     []float64    `json:"values"`
	Signals    []SignalType `json:"signals"`
}

// Latest returns the last value of the series, or 0 when it is empty
func (s IndicatorSeries) Latest() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return s.Values[len(s.Values)-1]
}

// HasValue reports whether the series holds at least one non-placeholder value
func (s IndicatorSeries) HasValue() bool {
	for _, v := range s.Values {
		if v != 0 {
			return true
		}
	}
	return false
}

// RiskMetrics summarizes the risk profile of a price series
type RiskMetrics struct {
	Volatility  float64  `json:"volatility"`
	SharpeRatio *float64 `json:"sharpe_ratio"`
	MaxDrawdown float64  `json:"max_drawdown"`
	Beta        *float64 `json:"beta"`
}

// AnalysisResult is the full output of one analysis run
type AnalysisResult struct {
	Symbol         string            `json:"symbol"`
	ComputedAt     time.Time         `json:"computed_at"`
	Indicators     []IndicatorSeries `json:"indicators"`
	Risk           RiskMetrics       `json:"risk"`
	Recommendation SignalType        `json:"recommendation"`
	Confidence     float64           `json:"confidence"`
}

// Indicator returns the series with the given name
func (r *AnalysisResult) Indicator(name string) (IndicatorSeries, bool) {
	for _, s := range r.Indicators {
		if s.Name == name {
			return s, true
		}
	}
	return IndicatorSeries{}, false
}
