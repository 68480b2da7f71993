package costfuncs

import (
	"sort"
)

// Uniformity measures how far a set of values in [-1, 1] is from being uniformly spread
// over that range: the mean squared distance between the sorted values and the quantiles
// of the uniform distribution. It is 0 for perfectly spaced values.
//
// It is a diagnostic, not a differentiable cost.
func Uniformity(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := float64(len(sorted))
	var sum float64
	for i, v := range sorted {
		q := -1 + 2*(float64(i)+0.5)/n
		d := v - q
		sum += d * d
	}

	return sum / n
}
