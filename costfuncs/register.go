package costfuncs

import (
	"github.com/pkg/errors"
)

var registered = map[string]func() CostFunction{
	"abs":           Abs,
	"l1":            Abs,
	"mse":           MSE,
	"l2":            MSE,
	"huber":         func() CostFunction { return Huber(DefaultHuberDelta) },
	"cross-entropy": CrossEntropy,
	"bce":           CrossEntropy,
}

// ByName returns a new instance of the cost function registered under 'name'.
func ByName(name string) (CostFunction, error) {
	f, ok := registered[name]
	if !ok {
		return nil, errors.Errorf("No cost function with name %q", name)
	}

	return f(), nil
}
