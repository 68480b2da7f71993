package initializers

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Initializer sets the starting values of a set of weights. fanIn is the number of inputs
// that contribute to each output of the layer, and fanOut the number of outputs each input
// contributes to.
type Initializer interface {
	Set(ws []float64, fanIn, fanOut int, rng *rand.Rand)
}

// default values, because 'default' is a keyword
var defaultValue map[string]float64

func init() {
	defaultValue = map[string]float64{
		"uniform-lower": -1,
		"uniform-upper": 1,
		"normal-mean":   0,
		"normal-sd":     1,
		"varscl-factor": 1,
	}
}

// SetDefault sets one of the default values used by the constructors in this package. The
// names are: "uniform-lower", "uniform-upper", "normal-mean", "normal-sd", and
// "varscl-factor".
func SetDefault(name string, value float64) error {
	if _, ok := defaultValue[name]; !ok {
		return errors.Errorf("Value with name %q does not exist", name)
	} else if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Errorf("Value is invalid (%v)", value)
	}

	defaultValue[name] = value
	return nil
}

// ByName returns the Initializer for the given name: "default" (or ""), "he", "lecun",
// "xavier", "glorot", "uniform" or "normal".
func ByName(name string) (Initializer, error) {
	switch name {
	case "", "default":
		return FanIn(), nil
	case "he":
		return He(), nil
	case "lecun":
		return LeCun(), nil
	case "xavier", "glorot":
		return Xavier(), nil
	case "uniform":
		return Uniform(), nil
	case "normal":
		return Random(Normal()), nil
	}

	return nil, errors.Errorf("Initializer %q is not recognized", name)
}
