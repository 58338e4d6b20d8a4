package models

import "math"

// machineEpsilon is the gap between 1.0 and the next representable float64
const machineEpsilon = 0x1p-52

// PercentChange returns the change from old to current in percent, or 0 when old is 0
func PercentChange(old, current float64) float64 {
	if old == 0 {
		return 0
	}
	return (current - old) / old * 100
}

// SafeDivide returns n/d, or def when d is too close to zero to divide by
func SafeDivide(n, d, def float64) float64 {
	if math.Abs(d) < machineEpsilon {
		return def
	}
	return n / d
}
