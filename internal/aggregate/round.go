package aggregate

import "math"

// RoundHalfEven rounds v to the given number of decimal places using
// round-half-to-even. Rounding is idempotent: rounding an already-rounded
// value at the same precision returns it unchanged. It is applied once,
// after formula evaluation, so formulas always see full-precision
// upstream values.
func RoundHalfEven(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	shift := math.Pow(10, float64(places))
	return math.RoundToEven(v*shift) / shift
}
