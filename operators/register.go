package operators

import (
	"math"

	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Activation is an elementwise function applied between layers
type Activation func(*tensor.Tensor) *tensor.Tensor

var defaultValue = map[string]float64{
	"leaky-slope": DefaultLeakySlope,
}

// SetDefault sets the default values for certain Operators. The only value that can be set
// is "leaky-slope", used by the "leaky-relu" activation.
func SetDefault(name string, value float64) error {
	if _, ok := defaultValue[name]; !ok {
		return errors.Errorf("Value with name %q does not exist", name)
	} else if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Errorf("Value is invalid (%v)", value)
	}

	defaultValue[name] = value
	return nil
}

// ActivationByName returns the activation with the given name. Valid names are "relu",
// "leaky-relu", "tanh", "logistic" and "identity".
func ActivationByName(name string) (Activation, error) {
	switch name {
	case "relu":
		return ReLU, nil
	case "leaky-relu", "lrelu":
		slope := defaultValue["leaky-slope"]
		return func(x *tensor.Tensor) *tensor.Tensor { return LeakyReLU(x, slope) }, nil
	case "tanh":
		return Tanh, nil
	case "logistic", "sigmoid":
		return Logistic, nil
	case "identity", "":
		return func(x *tensor.Tensor) *tensor.Tensor { return x }, nil
	}

	return nil, errors.Errorf("No activation with name %q", name)
}
