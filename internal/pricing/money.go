package pricing

import "math"

// Round2 rounds a monetary value to currency precision (two decimal places).
// Intermediate arithmetic must stay unrounded; only values that leave the
// package boundary go through Round2, otherwise rounding error compounds
// across the aggregation chain.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
