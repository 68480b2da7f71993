package optimizers

import (
	"io"
	"runtime"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
	"github.com/kimwoo11/TimeMachiNet/utils"
)

// SGD is stochastic gradient descent, optionally with momentum.
type SGD struct {
	group

	momentum float64
	velocity [][]float64
}

// GradientDescent returns plain gradient descent over the given parameters.
func GradientDescent(params []*tensor.Tensor, learningRate hyperparams.HyperParameter) (*SGD, error) {
	g, err := newGroup(params, learningRate)
	if err != nil {
		return nil, err
	}

	s := &SGD{group: g, velocity: make([][]float64, len(params))}
	for i, p := range params {
		s.velocity[i] = make([]float64, len(p.Data))
	}

	return s, nil
}

// Momentum sets the fraction of the previous update that is carried into the next.
func (s *SGD) Momentum(μ float64) *SGD {
	s.momentum = μ
	return s
}

// Penalty sets the penalty applied to every gradient before it is used.
func (s *SGD) Penalty(p penalties.Penalty) *SGD {
	s.penalty = p
	return s
}

func (s *SGD) TypeString() string {
	return "sgd"
}

func (s *SGD) Step() {
	learningRate := s.learningRate.Value(s.iter)
	s.iter++

	threadsPerCPU := 1
	opsPerThread := runtime.NumCPU() * threadSizeMultiplier

	for pi, p := range s.params {
		vel := s.velocity[pi]

		f := func(i int) {
			vel[i] = s.momentum*vel[i] + s.grad(p, i)
			p.Data[i] += -1 * learningRate * vel[i]
		}

		utils.MultiThread(0, len(p.Data), f, opsPerThread, threadsPerCPU)
	}
}

func (s *SGD) slots(i int) [][]float64 {
	return [][]float64{s.velocity[i]}
}

func (s *SGD) Save(w io.Writer) error {
	return s.save(w, s.TypeString(), s.slots)
}

func (s *SGD) Load(r io.Reader) error {
	return s.load(r, s.TypeString(), s.slots)
}
