package operators

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

const (
	bnEpsilon  float64 = 1e-5
	bnMomentum float64 = 0.1
)

// BatchNorm normalizes each channel of N×C or N×C×H×W values. While training it uses the
// statistics of the batch and keeps running averages of them; otherwise it uses the running
// averages.
type BatchNorm struct {
	Features int

	// scale and shift, both of length Features
	Gamma, Beta *tensor.Tensor

	// running statistics; buffers, not parameters
	RunningMean, RunningVar *tensor.Tensor

	Training bool
}

// Norm returns a batch normalization layer. Its tensors are named "<name>.weight",
// "<name>.bias", "<name>.running_mean" and "<name>.running_var". It starts in training mode.
func Norm(name string, features int) *BatchNorm {
	b := &BatchNorm{
		Features:    features,
		Gamma:       tensor.NewParam(name+".weight", features),
		Beta:        tensor.NewParam(name+".bias", features),
		RunningMean: tensor.NewBuffer(name+".running_mean", features),
		RunningVar:  tensor.NewBuffer(name+".running_var", features),
		Training:    true,
	}

	for i := 0; i < features; i++ {
		b.Gamma.Data[i] = 1
		b.RunningVar.Data[i] = 1
	}

	return b
}

// Params returns the scale and shift of the layer.
func (b *BatchNorm) Params() []*tensor.Tensor {
	return []*tensor.Tensor{b.Gamma, b.Beta}
}

// Buffers returns the running statistics of the layer.
func (b *BatchNorm) Buffers() []*tensor.Tensor {
	return []*tensor.Tensor{b.RunningMean, b.RunningVar}
}

// Forward normalizes x. In training mode the running statistics are updated as a side
// effect.
func (b *BatchNorm) Forward(x *tensor.Tensor) *tensor.Tensor {
	if len(x.Shape) < 2 || x.Shape[1] != b.Features {
		panic(fmt.Sprintf("Can't apply batch norm %v, input shape %v does not have %d channels", b.Gamma, x.Shape, b.Features))
	}

	n, c := x.Shape[0], x.Shape[1]
	g := len(x.Data) / (n * c)
	m := float64(n * g)

	mean := make([]float64, c)
	invStd := make([]float64, c)

	if b.Training {
		variance := make([]float64, c)
		channelSums(x.Data, mean, n, c, g)
		for ch := range mean {
			mean[ch] /= m
		}

		for s := 0; s < n; s++ {
			for ch := 0; ch < c; ch++ {
				for _, v := range x.Data[(s*c+ch)*g : (s*c+ch+1)*g] {
					d := v - mean[ch]
					variance[ch] += d * d
				}
			}
		}

		for ch := range variance {
			variance[ch] /= m
			invStd[ch] = 1 / math.Sqrt(variance[ch]+bnEpsilon)

			unbiased := variance[ch]
			if m > 1 {
				unbiased *= m / (m - 1)
			}
			b.RunningMean.Data[ch] = (1-bnMomentum)*b.RunningMean.Data[ch] + bnMomentum*mean[ch]
			b.RunningVar.Data[ch] = (1-bnMomentum)*b.RunningVar.Data[ch] + bnMomentum*unbiased
		}
	} else {
		for ch := 0; ch < c; ch++ {
			mean[ch] = b.RunningMean.Data[ch]
			invStd[ch] = 1 / math.Sqrt(b.RunningVar.Data[ch]+bnEpsilon)
		}
	}

	training := b.Training
	out := tensor.Result(x.Shape, x, b.Gamma, b.Beta)
	xhat := make([]float64, len(x.Data))

	for s := 0; s < n; s++ {
		for ch := 0; ch < c; ch++ {
			off := (s*c + ch) * g
			for j := off; j < off+g; j++ {
				xhat[j] = (x.Data[j] - mean[ch]) * invStd[ch]
				out.Data[j] = b.Gamma.Data[ch]*xhat[j] + b.Beta.Data[ch]
			}
		}
	}

	out.SetBackward(func() {
		// per channel: Σdy and Σdy·x̂
		sumDy := make([]float64, c)
		sumDyXhat := make([]float64, c)
		channelSums(out.Grad, sumDy, n, c, g)
		for s := 0; s < n; s++ {
			for ch := 0; ch < c; ch++ {
				off := (s*c + ch) * g
				sumDyXhat[ch] += floats.Dot(out.Grad[off:off+g], xhat[off:off+g])
			}
		}

		if b.Gamma.Active() {
			floats.Add(b.Gamma.Grad, sumDyXhat)
		}
		if b.Beta.Active() {
			floats.Add(b.Beta.Grad, sumDy)
		}

		if !x.Active() {
			return
		}

		for s := 0; s < n; s++ {
			for ch := 0; ch < c; ch++ {
				scale := b.Gamma.Data[ch] * invStd[ch]
				off := (s*c + ch) * g
				for j := off; j < off+g; j++ {
					if training {
						x.Grad[j] += scale * (out.Grad[j] - sumDy[ch]/m - xhat[j]*sumDyXhat[ch]/m)
					} else {
						x.Grad[j] += scale * out.Grad[j]
					}
				}
			}
		}
	})

	return out
}
