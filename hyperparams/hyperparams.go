// Package hyperparams provides values, such as learning rates, that may change over the
// course of training.
package hyperparams

import (
	"sort"

	"github.com/pkg/errors"
)

// HyperParameter gives a value for each iteration of training. Iterations start at 0.
type HyperParameter interface {
	TypeString() string
	Value(iter int) float64
}

// Schedule is the serializable description of a HyperParameter, as found in configuration
// files.
type Schedule struct {
	Type  string  `yaml:"type" json:"type"`
	Value float64 `yaml:"value" json:"value"`

	// only for "step"
	Steps []Change `yaml:"steps,omitempty" json:"steps,omitempty"`
}

// Change sets the value of a step schedule from iteration Iter onwards
type Change struct {
	Iter  int     `yaml:"iter" json:"iter"`
	Value float64 `yaml:"value" json:"value"`
}

// Build returns the HyperParameter described by the schedule. An empty Type is treated as
// "constant".
func (s Schedule) Build() (HyperParameter, error) {
	switch s.Type {
	case "constant", "":
		return Constant(s.Value), nil
	case "step":
		st := Step(s.Value)
		changes := append([]Change(nil), s.Steps...)
		sort.SliceStable(changes, func(i, j int) bool { return changes[i].Iter < changes[j].Iter })
		for _, c := range changes {
			if c.Iter < 0 {
				return nil, errors.Errorf("Can't build step schedule, iteration %d is negative", c.Iter)
			}
			st.Add(c.Iter, c.Value)
		}
		return st, nil
	}

	return nil, errors.Errorf("No hyperparameter with type %q", s.Type)
}
