// Package indicators computes technical indicators over a price sequence.
//
// Every function returns a slice with exactly one value per input price.
// Indices without enough history hold the placeholder 0.0, which callers
// must read as "not yet available" rather than a computed zero. All outputs
// go through RoundTo with the calculator's precision so results match
// across every runtime that embeds the same rules.
package indicators

import "math"

// DefaultPrecision is the number of decimals kept by NewCalculator
const DefaultPrecision = 4

// Placeholder marks an index that lacks enough history
const Placeholder = 0.0

// Calculator computes indicators rounded to a fixed decimal precision.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	precision int
}

// NewCalculator creates a Calculator with DefaultPrecision
func NewCalculator() *Calculator {
	return &Calculator{precision: DefaultPrecision}
}

// NewCalculatorWithPrecision creates a Calculator rounding to the given number of decimals
func NewCalculatorWithPrecision(precision int) *Calculator {
	if precision < 0 {
		precision = 0
	}
	return &Calculator{precision: precision}
}

// Precision returns the number of decimals kept
func (c *Calculator) Precision() int { return c.precision }

func (c *Calculator) round(v float64) float64 { return RoundTo(v, c.precision) }

// RoundTo rounds value to precision decimals, halves away from zero
func RoundTo(value float64, precision int) float64 {
	multiplier := math.Pow10(precision)
	return math.Round(value*multiplier) / multiplier
}

func placeholders(n int) []float64 {
	return make([]float64, n)
}
