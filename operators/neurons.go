package operators

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/initializers"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Linear is a fully connected layer: y = x·Wᵀ + b, for x of shape N×In.
type Linear struct {
	In, Out int

	// Out×In
	Weight *tensor.Tensor
	// Out
	Bias *tensor.Tensor
}

// Neurons returns a fully connected layer whose parameters are named "<name>.weight" and
// "<name>.bias". Both are set by 'init', with fan-in In.
func Neurons(name string, in, out int, init initializers.Initializer, rng *rand.Rand) *Linear {
	l := &Linear{
		In:     in,
		Out:    out,
		Weight: tensor.NewParam(name+".weight", out, in),
		Bias:   tensor.NewParam(name+".bias", out),
	}

	init.Set(l.Weight.Data, in, out, rng)
	init.Set(l.Bias.Data, in, out, rng)

	return l
}

// Params returns the weights and biases of the layer.
func (l *Linear) Params() []*tensor.Tensor {
	return []*tensor.Tensor{l.Weight, l.Bias}
}

// Forward applies the layer to an N×In Tensor.
func (l *Linear) Forward(x *tensor.Tensor) *tensor.Tensor {
	if len(x.Shape) != 2 || x.Shape[1] != l.In {
		panic(fmt.Sprintf("Can't apply linear layer %v, input shape %v does not have %d features", l.Weight, x.Shape, l.In))
	}

	n := x.Shape[0]
	out := tensor.Result([]int{n, l.Out}, x, l.Weight, l.Bias)

	X := matrix(x.Data, n, l.In)
	W := matrix(l.Weight.Data, l.Out, l.In)
	Y := matrix(out.Data, n, l.Out)

	for s := 0; s < n; s++ {
		copy(out.Data[s*l.Out:(s+1)*l.Out], l.Bias.Data)
	}
	gemm(false, true, 1, X, W, 1, Y)

	out.SetBackward(func() {
		dY := matrix(out.Grad, n, l.Out)

		if x.Active() {
			gemm(false, false, 1, dY, W, 1, matrix(x.Grad, n, l.In))
		}

		if l.Weight.Active() {
			gemm(true, false, 1, dY, X, 1, matrix(l.Weight.Grad, l.Out, l.In))
		}

		if l.Bias.Active() {
			for s := 0; s < n; s++ {
				for o, g := range out.Grad[s*l.Out : (s+1)*l.Out] {
					l.Bias.Grad[o] += g
				}
			}
		}
	})

	return out
}
