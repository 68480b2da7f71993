package costfuncs

import (
	"math"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// DefaultHuberDelta is the δ given to Huber by ByName
const DefaultHuberDelta float64 = 1

type huber struct {
	δ float64
}

// Huber returns the Huber Loss Function. δ controls the bounds of the transition between
// MSE and Absolute Value.
func Huber(δ float64) CostFunction {
	return huber{δ: δ}
}

func (h huber) TypeString() string {
	return "huber"
}

func (h huber) deriv(d float64) float64 {
	if !(d < -h.δ || d > h.δ) { // d >= -h.δ && d <= h.δ
		return d
	}

	return h.δ * math.Copysign(1, d)
}

func (h huber) Cost(outs, targets *tensor.Tensor) *tensor.Tensor {
	return pointwise("huber", outs, targets, func(o, t float64) (float64, float64) {
		d := o - t
		a := math.Abs(d)
		if a <= h.δ {
			return 0.5 * d * d, h.deriv(d)
		}
		return h.δ*a - 0.5*h.δ*h.δ, h.deriv(d)
	}, func(o, t float64) float64 {
		return -h.deriv(o - t)
	})
}
