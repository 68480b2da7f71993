package operators

import (
	"math"
	"runtime"

	"github.com/kimwoo11/TimeMachiNet/tensor"
	"github.com/kimwoo11/TimeMachiNet/utils"
)

const threadSizeMultiplier int = 1024

// Tanh returns an elementwise application of the tanh() function. The output is always
// within [-1, 1].
func Tanh(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.Result(x.Shape, x)

	f := func(i int) {
		out.Data[i] = math.Tanh(x.Data[i])
	}

	opsPerThread := runtime.NumCPU() * threadSizeMultiplier
	threadsPerCPU := 1

	utils.MultiThread(0, len(x.Data), f, opsPerThread, threadsPerCPU)

	// the derivative of tanh(x) is 1 - tanh(x)^2
	out.SetBackward(func() {
		f := func(i int) {
			y := out.Data[i]
			x.Grad[i] += out.Grad[i] * (1 - y*y)
		}

		utils.MultiThread(0, len(x.Data), f, opsPerThread, threadsPerCPU)
	})

	return out
}

// Logistic returns 1/(1+e^-x), elementwise. Scores from the discriminators are passed
// through it to turn them into probabilities.
func Logistic(x *tensor.Tensor) *tensor.Tensor {
	out := tensor.Result(x.Shape, x)
	for i, v := range x.Data {
		out.Data[i] = 0.5 + 0.5*math.Tanh(0.5*v)
	}

	out.SetBackward(func() {
		for i, g := range out.Grad {
			y := out.Data[i]
			x.Grad[i] += g * y * (1 - y)
		}
	})

	return out
}
