package costfuncs

import (
	"math"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

type abs struct{}

// Abs returns the Absolute Value cost function: the mean of |out - target|.
func Abs() CostFunction {
	return abs{}
}

// L1 is a proxy for Abs
func L1() CostFunction {
	return Abs()
}

func (abs) TypeString() string {
	return "abs"
}

func (abs) Cost(outs, targets *tensor.Tensor) *tensor.Tensor {
	return pointwise("abs", outs, targets, func(o, t float64) (float64, float64) {
		return math.Abs(o - t), sign(o - t)
	}, func(o, t float64) float64 {
		return -sign(o - t)
	})
}

// sign is 0 at 0, so that identical values have no gradient
func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}

	return 0
}
