package costfuncs

import (
	"math"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

type crossEntropy struct{}

// CrossEntropy returns binary cross-entropy, taking raw scores (logits) as outputs and
// probabilities in [0, 1] as targets. The logistic function is folded into the cost so
// that large scores don't lose precision.
func CrossEntropy() CostFunction {
	return crossEntropy{}
}

// BCEWithLogits is a proxy for CrossEntropy
func BCEWithLogits() CostFunction {
	return CrossEntropy()
}

func (crossEntropy) TypeString() string {
	return "cross-entropy"
}

func (crossEntropy) Cost(outs, targets *tensor.Tensor) *tensor.Tensor {
	// max(x, 0) - x·t + log(1 + e^-|x|), with derivative σ(x) - t
	return pointwise("cross-entropy", outs, targets, func(x, t float64) (float64, float64) {
		c := math.Max(x, 0) - x*t + math.Log1p(math.Exp(-math.Abs(x)))
		return c, logistic(x) - t
	}, nil)
}

func logistic(x float64) float64 {
	return 0.5 + 0.5*math.Tanh(0.5*x)
}

// Label returns a tensor shaped like 'scores' with every value set to 'v'. It gives the
// "real" (1) and "fake" (0) targets for discriminator scores.
func Label(scores *tensor.Tensor, v float64) *tensor.Tensor {
	t := tensor.New(scores.Shape...)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}
