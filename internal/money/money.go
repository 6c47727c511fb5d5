// Package money holds the fixed-precision rounding primitive every monetary
// value in the pipeline passes through before storage, comparison, or display.
package money

import "math"

// epsilon counteracts binary float representation error so that half-cent
// values round up: without the nudge, 1.005 is stored as 1.00499... and
// math.Round would send it down.
const epsilon = 1e-9

// Round2 rounds to 2 decimal places, half-up.
//
// Running sums must be re-rounded after each addition, not only at the end;
// penny-level outcomes on long item lists depend on it.
func Round2(x float64) float64 {
	return math.Round((x+epsilon)*100) / 100
}
