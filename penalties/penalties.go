// Package penalties provides regularization terms that are added to the gradient of each
// weight before an optimizer uses it.
package penalties

import (
	"math"

	"github.com/pkg/errors"
)

// Penalty adjusts the gradient of a single weight
type Penalty interface {
	TypeString() string

	// Penalize returns the gradient of weight 'w' after the penalty is applied
	Penalize(w, grad float64) float64
}

// ByName returns the penalty with the given name and strength. α is only used by
// "elastic-net". The names "none" and "" give a nil Penalty.
func ByName(name string, λ, α float64) (Penalty, error) {
	if math.IsNaN(λ) || λ < 0 {
		return nil, errors.Errorf("Can't make penalty %q, strength %v is invalid", name, λ)
	}

	switch name {
	case "", "none":
		return nil, nil
	case "weight-decay":
		return WeightDecay(λ), nil
	case "l1", "l1-lasso", "lasso":
		return L1(λ), nil
	case "l2", "l2-ridge", "ridge":
		return L2(λ), nil
	case "elastic-net":
		if α < 0 || α > 1 {
			return nil, errors.Errorf("Can't make elastic net, α = %v is not within [0, 1]", α)
		}
		return ElasticNet(α, λ), nil
	}

	return nil, errors.Errorf("No penalty with name %q", name)
}
