// relus.go contains the activation functions that are derivative of relu:
// * ReLU
// * Leaky ReLU
package operators

import (
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// DefaultLeakySlope is the slope of LeakyReLU for negative inputs when none is given.
const DefaultLeakySlope float64 = 0.01

// ReLU returns max(x, 0), elementwise.
func ReLU(x *tensor.Tensor) *tensor.Tensor {
	return LeakyReLU(x, 0)
}

// LeakyReLU returns x for positive values and alpha·x otherwise, elementwise.
func LeakyReLU(x *tensor.Tensor, alpha float64) *tensor.Tensor {
	out := tensor.Result(x.Shape, x)
	for i, v := range x.Data {
		if v > 0 {
			out.Data[i] = v
		} else {
			out.Data[i] = alpha * v
		}
	}

	out.SetBackward(func() {
		for i, g := range out.Grad {
			if x.Data[i] > 0 {
				x.Grad[i] += g
			} else {
				x.Grad[i] += alpha * g
			}
		}
	})

	return out
}
