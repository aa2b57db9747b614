package series

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MinCorrelationSamples is the smallest paired sample count for which a
// correlation is reported.
const MinCorrelationSamples = 3

// Pearson returns the Pearson correlation coefficient of the first
// min(len(x), len(y)) pairs. It returns 0 for fewer than
// MinCorrelationSamples pairs or when either input is flat.
func Pearson(x, y []float64) float64 {
	n := min(len(x), len(y))
	if n < MinCorrelationSamples {
		return 0
	}
	x, y = x[:n], y[:n]
	if !(stat.Variance(x, nil) > 0) || !(stat.Variance(y, nil) > 0) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}
