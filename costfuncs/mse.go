package costfuncs

import (
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

type mse struct{}

// MSE returns the mean squared error cost function, with the conventional factor of 1/2.
func MSE() CostFunction {
	return mse{}
}

// L2 is a proxy for MSE
func L2() CostFunction {
	return MSE()
}

func (mse) TypeString() string {
	return "mse"
}

func (mse) Cost(outs, targets *tensor.Tensor) *tensor.Tensor {
	return pointwise("mse", outs, targets, func(o, t float64) (float64, float64) {
		d := o - t
		return 0.5 * d * d, d
	}, func(o, t float64) float64 {
		return t - o
	})
}
