package initializers

import (
	"math"
	"math/rand"
)

type uniform struct {
	lower, upper float64
}

// Uniform returns an Initalizer that draws from a uniform random sample within a
// range, which can be set by Range. The defaults ("uniform-lower" and
// "uniform-upper") can be set by SetDefault
func Uniform() *uniform {
	return &uniform{defaultValue["uniform-lower"], defaultValue["uniform-upper"]}
}

// Range sets the Range of a Uniform Initializer, returning the same Initializer
func (u *uniform) Range(lower, upper float64) *uniform {
	u.lower = lower
	u.upper = upper
	return u
}

func (u *uniform) Set(ws []float64, fanIn, fanOut int, rng *rand.Rand) {
	if u.lower > u.upper {
		u.lower, u.upper = u.upper, u.lower
	}

	for i := range ws {
		ws[i] = rng.Float64()*(u.upper-u.lower) + u.lower
	}
}

type fanIn int8

// FanIn returns the Initializer used when none is configured. Weights are drawn uniformly
// from ±1/sqrt(fanIn), which is the usual default for linear and convolutional layers (and
// also what is used for their biases).
func FanIn() fanIn {
	return fanIn(0)
}

func (f fanIn) Set(ws []float64, in, out int, rng *rand.Rand) {
	bound := 1.0
	if in > 0 {
		bound = 1 / math.Sqrt(float64(in))
	}

	for i := range ws {
		ws[i] = (2*rng.Float64() - 1) * bound
	}
}
