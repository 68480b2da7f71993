// Package costfuncs provides the losses used to train the networks. Every cost function
// reduces a batch of outputs and targets to a single mean value, differentiable with
// respect to the outputs.
package costfuncs

import (
	"fmt"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// CostFunction compares outputs with their targets
type CostFunction interface {
	// TypeString returns the name the cost function is registered under
	TypeString() string

	// Cost returns the mean cost of 'outs' against 'targets' as a scalar Tensor. The
	// gradient flows back to 'outs', and to 'targets' if they are themselves computed.
	Cost(outs, targets *tensor.Tensor) *tensor.Tensor
}

// pointwise builds the mean of f over every pair of values. f returns the cost of one pair
// and its derivative with respect to the output; the derivative with respect to the target
// is given by 'targetDeriv', or is not computed if that is nil.
func pointwise(name string, outs, targets *tensor.Tensor, f func(o, t float64) (float64, float64), targetDeriv func(o, t float64) float64) *tensor.Tensor {
	if !tensor.SameShape(outs, targets) {
		panic(fmt.Sprintf("Can't calculate %s cost, shapes %v and %v differ", name, outs.Shape, targets.Shape))
	}

	n := float64(len(outs.Data))
	derivs := make([]float64, len(outs.Data))

	loss := tensor.Result([]int{1}, outs, targets)
	var sum float64
	for i, o := range outs.Data {
		c, d := f(o, targets.Data[i])
		sum += c
		derivs[i] = d
	}
	loss.Data[0] = sum / n

	loss.SetBackward(func() {
		g := loss.Grad[0] / n

		if outs.Active() {
			for i, d := range derivs {
				outs.Grad[i] += g * d
			}
		}

		if targets.Active() && targetDeriv != nil {
			for i, t := range targets.Data {
				targets.Grad[i] += g * targetDeriv(outs.Data[i], t)
			}
		}
	})

	return loss
}
