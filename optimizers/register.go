package optimizers

import (
	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Args are the settings of an optimizer that can be given by name
type Args struct {
	Type         string
	LearningRate hyperparams.HyperParameter
	Betas        [2]float64
	Momentum     float64
	Penalty      penalties.Penalty
}

// ByName builds the optimizer with name "adam" or "sgd" over the given parameters.
func ByName(params []*tensor.Tensor, args Args) (Optimizer, error) {
	switch args.Type {
	case "adam", "":
		a, err := Adam(params, args.LearningRate)
		if err != nil {
			return nil, err
		}
		if a, err = a.Betas(args.Betas[0], args.Betas[1]); err != nil {
			return nil, err
		}
		return a.Penalty(args.Penalty), nil
	case "sgd", "SGD":
		s, err := GradientDescent(params, args.LearningRate)
		if err != nil {
			return nil, err
		}
		return s.Momentum(args.Momentum).Penalty(args.Penalty), nil
	}

	return nil, errors.Errorf("No optimizer with name %q", args.Type)
}
