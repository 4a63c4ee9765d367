package models

import "math"

// Round2 rounds a monetary amount to 2 decimal places. Rounding happens at the
// point a value is emitted, never on intermediate sums.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
