package utils

import "math"

func RoundWithTwoDecimalPlace(f float64) float64 {
	if f == 0 {
		return 0
	}

	return math.Round(f*100) / 100
}

// Finite coerces NaN and Infinity to 0 so they never leak into sums or
// comparisons.
func Finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}

	return f
}

// SafeDiv divides a by b, returning 0 for a zero denominator or a non-finite
// quotient.
func SafeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}

	return Finite(a / b)
}
