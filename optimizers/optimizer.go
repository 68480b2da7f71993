// Package optimizers provides the update rules that move parameters along their gradients.
//
// Each optimizer owns a fixed set of parameters, given when it is made. Gradients are
// accumulated into those parameters by tensor.Backward and consumed by Step.
package optimizers

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Optimizer updates a set of parameters from their gradients
type Optimizer interface {
	TypeString() string

	// Params returns the parameters updated by the optimizer, in the order they were given
	Params() []*tensor.Tensor

	// ZeroGrad sets the gradient of every parameter to zero
	ZeroGrad()

	// Step applies one update using the current gradients
	Step()

	// Iterations returns the number of times Step has been called, including those
	// restored by Load
	Iterations() int

	Save(w io.Writer) error
	Load(r io.Reader) error
}

// group is the state shared by every optimizer
type group struct {
	params       []*tensor.Tensor
	learningRate hyperparams.HyperParameter
	penalty      penalties.Penalty
	iter         int
}

func newGroup(params []*tensor.Tensor, lr hyperparams.HyperParameter) (group, error) {
	seen := make(map[string]bool, len(params))
	for _, p := range params {
		if !p.IsParam() {
			return group{}, errors.Errorf("Can't optimize %v, it is not a parameter", p)
		} else if seen[p.Name] {
			return group{}, errors.Errorf("Can't optimize parameters, name %q is given twice", p.Name)
		}
		seen[p.Name] = true
	}

	if lr == nil {
		return group{}, errors.Errorf("Can't make optimizer without a learning rate")
	}

	return group{params: params, learningRate: lr}, nil
}

func (g *group) Params() []*tensor.Tensor {
	return g.params
}

func (g *group) ZeroGrad() {
	for _, p := range g.params {
		p.ZeroGrad()
	}
}

func (g *group) Iterations() int {
	return g.iter
}

// grad returns the penalized gradient of the i'th value of p
func (g *group) grad(p *tensor.Tensor, i int) float64 {
	if g.penalty == nil {
		return p.Grad[i]
	}

	return g.penalty.Penalize(p.Data[i], p.Grad[i])
}

// moments is the per-parameter state written by Save
type moments struct {
	Shape []int       `json:"shape"`
	Slots [][]float64 `json:"slots"`
}

type savedState struct {
	Type  string             `json:"type"`
	Iter  int                `json:"iter"`
	State map[string]moments `json:"state"`
}

// save writes the optimizer's per-parameter slots, keyed by parameter name
func (g *group) save(w io.Writer, typ string, slots func(i int) [][]float64) error {
	st := savedState{
		Type:  typ,
		Iter:  g.iter,
		State: make(map[string]moments, len(g.params)),
	}

	for i, p := range g.params {
		st.State[p.Name] = moments{Shape: p.Shape, Slots: slots(i)}
	}

	if err := json.NewEncoder(w).Encode(st); err != nil {
		return errors.Wrapf(err, "Failed to encode %s optimizer state", typ)
	}

	return nil
}

// load reads state written by save, copying the slots of each parameter into the given
// destinations
func (g *group) load(r io.Reader, typ string, slots func(i int) [][]float64) error {
	var st savedState
	if err := json.NewDecoder(r).Decode(&st); err != nil {
		return errors.Wrapf(err, "Failed to decode %s optimizer state", typ)
	} else if st.Type != typ {
		return errors.Errorf("Can't load %q optimizer state into %q optimizer", st.Type, typ)
	}

	for i, p := range g.params {
		m, ok := st.State[p.Name]
		if !ok {
			return errors.Errorf("Can't load %s optimizer state, missing parameter %q", typ, p.Name)
		}

		dst := slots(i)
		if len(m.Slots) != len(dst) {
			return errors.Errorf("Can't load %s optimizer state for %q, expected %d slots but found %d", typ, p.Name, len(dst), len(m.Slots))
		}

		for s := range dst {
			if len(m.Slots[s]) != len(dst[s]) {
				return errors.Errorf("Can't load %s optimizer state for %q, shape %v does not match %v", typ, p.Name, m.Shape, p.Shape)
			}
		}
	}

	// only copied once everything has been checked
	for i, p := range g.params {
		dst := slots(i)
		for s := range dst {
			copy(dst[s], st.State[p.Name].Slots[s])
		}
	}

	g.iter = st.Iter
	return nil
}
