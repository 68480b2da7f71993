package optimizers

import (
	"io"
	"math"
	"runtime"

	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
	"github.com/kimwoo11/TimeMachiNet/utils"
)

const threadSizeMultiplier int = 2

// AdamOpt is the Adam optimizer, with bias-corrected first and second moments.
type AdamOpt struct {
	group

	β1, β2 float64
	ε      float64

	// first and second moments, one slice per parameter
	m, v [][]float64
}

// Adam returns an Adam optimizer over the given parameters with the default β1 = 0.9,
// β2 = 0.999 and ε = 1e-8. The parameters must have distinct names.
func Adam(params []*tensor.Tensor, learningRate hyperparams.HyperParameter) (*AdamOpt, error) {
	g, err := newGroup(params, learningRate)
	if err != nil {
		return nil, err
	}

	a := &AdamOpt{
		group: g,
		β1:    0.9,
		β2:    0.999,
		ε:     1e-8,
		m:     make([][]float64, len(params)),
		v:     make([][]float64, len(params)),
	}

	for i, p := range params {
		a.m[i] = make([]float64, len(p.Data))
		a.v[i] = make([]float64, len(p.Data))
	}

	return a, nil
}

// Betas sets the decay rates of the moment estimates. Both must be within [0, 1).
func (a *AdamOpt) Betas(β1, β2 float64) (*AdamOpt, error) {
	if β1 < 0 || β1 >= 1 || β2 < 0 || β2 >= 1 {
		return nil, errors.Errorf("Can't set Adam betas to (%v, %v), must be within [0, 1)", β1, β2)
	}

	a.β1, a.β2 = β1, β2
	return a, nil
}

// Epsilon sets the value added to the denominator of each update.
func (a *AdamOpt) Epsilon(ε float64) *AdamOpt {
	a.ε = ε
	return a
}

// Penalty sets the penalty applied to every gradient before it is used. A weight decay
// penalty here matches the weight decay of most Adam implementations.
func (a *AdamOpt) Penalty(p penalties.Penalty) *AdamOpt {
	a.penalty = p
	return a
}

func (a *AdamOpt) TypeString() string {
	return "adam"
}

func (a *AdamOpt) Step() {
	lr := a.learningRate.Value(a.iter)
	a.iter++

	correct1 := 1 - math.Pow(a.β1, float64(a.iter))
	correct2 := 1 - math.Pow(a.β2, float64(a.iter))

	opsPerThread := runtime.NumCPU() * threadSizeMultiplier
	threadsPerCPU := 1

	for pi, p := range a.params {
		m, v := a.m[pi], a.v[pi]

		f := func(i int) {
			g := a.grad(p, i)
			m[i] = a.β1*m[i] + (1-a.β1)*g
			v[i] = a.β2*v[i] + (1-a.β2)*g*g

			mHat := m[i] / correct1
			vHat := v[i] / correct2
			p.Data[i] -= lr * mHat / (math.Sqrt(vHat) + a.ε)
		}

		utils.MultiThread(0, len(p.Data), f, opsPerThread, threadsPerCPU)
	}
}

func (a *AdamOpt) slots(i int) [][]float64 {
	return [][]float64{a.m[i], a.v[i]}
}

// Save writes the moments and step count as JSON, keyed by parameter name.
func (a *AdamOpt) Save(w io.Writer) error {
	return a.save(w, a.TypeString(), a.slots)
}

// Load restores state written by Save. Every parameter of the optimizer must be present
// with a matching size; nothing is changed if any is not.
func (a *AdamOpt) Load(r io.Reader) error {
	return a.load(r, a.TypeString(), a.slots)
}
