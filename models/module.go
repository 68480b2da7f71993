// Package models contains the four networks that make up the face-aging model: the
// Encoder, the Generator, and the latent and image discriminators.
//
// Every network owns its layers and exposes them as a flat list of named tensors, which is
// what optimizers train and what checkpoints store.
package models

import (
	"encoding/json"
	"io"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/initializers"
	"github.com/kimwoo11/TimeMachiNet/operators"
	"github.com/kimwoo11/TimeMachiNet/tensor"
	"github.com/kimwoo11/TimeMachiNet/utils"
)

// Module is a network with named state
type Module interface {
	// Name is the name of the module's checkpoint file, without extension
	Name() string

	// Params returns the trainable tensors, in a fixed order
	Params() []*tensor.Tensor

	// Buffers returns the tensors that are saved but not trained
	Buffers() []*tensor.Tensor

	// SetTraining switches between training mode (batch statistics) and evaluation mode
	// (running statistics). Only batch normalization is affected.
	SetTraining(training bool)
}

// State returns the parameters and then the buffers of a module
func State(m Module) []*tensor.Tensor {
	return append(append([]*tensor.Tensor{}, m.Params()...), m.Buffers()...)
}

// CountParams returns the number of trainable values in a module
func CountParams(m Module) int {
	var n int
	for _, p := range m.Params() {
		n += p.Size()
	}
	return n
}

type savedTensor struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Save writes the state of the module as a JSON object from tensor name to its shape and
// values.
func Save(w io.Writer, m Module) error {
	state := make(map[string]savedTensor)
	for _, t := range State(m) {
		state[t.Name] = savedTensor{Shape: t.Shape, Data: t.Data}
	}

	if err := json.NewEncoder(w).Encode(state); err != nil {
		return errors.Wrapf(err, "Failed to encode state of %s", m.Name())
	}
	return nil
}

// Load restores state written by Save. Every tensor of the module must be present with the
// same shape; if any is not, the module is left unchanged.
func Load(r io.Reader, m Module) error {
	var state map[string]savedTensor
	if err := json.NewDecoder(r).Decode(&state); err != nil {
		return errors.Wrapf(err, "Failed to decode state of %s", m.Name())
	}

	tensors := State(m)
	for _, t := range tensors {
		s, ok := state[t.Name]
		if !ok {
			return errors.Errorf("Can't load %s, missing %q", m.Name(), t.Name)
		} else if !utils.Equal(s.Shape, t.Shape) || len(s.Data) != len(t.Data) {
			return errors.Errorf("Can't load %s, %q has shape %v, expected %v", m.Name(), t.Name, s.Shape, t.Shape)
		}
	}

	for _, t := range tensors {
		copy(t.Data, state[t.Name].Data)
	}
	return nil
}

// builder collects the layers of a network as they are made
type builder struct {
	init   initializers.Initializer
	rng    *rand.Rand
	params []*tensor.Tensor
	norms  []*operators.BatchNorm
}

func newBuilder(c Config, rng *rand.Rand) (*builder, error) {
	init, err := initializers.ByName(c.Initializer)
	if err != nil {
		return nil, err
	}
	return &builder{init: init, rng: rng}, nil
}

func (b *builder) linear(name string, in, out int) *operators.Linear {
	l := operators.Neurons(name, in, out, b.init, b.rng)
	b.params = append(b.params, l.Params()...)
	return l
}

func (b *builder) conv(name string, args operators.ConvArgs) *operators.Conv2D {
	c := operators.Conv(name, args, b.init, b.rng)
	b.params = append(b.params, c.Params()...)
	return c
}

func (b *builder) deconv(name string, args operators.ConvArgs) *operators.ConvTranspose2D {
	d := operators.Deconv(name, args, b.init, b.rng)
	b.params = append(b.params, d.Params()...)
	return d
}

func (b *builder) norm(name string, features int) *operators.BatchNorm {
	n := operators.Norm(name, features)
	b.params = append(b.params, n.Params()...)
	b.norms = append(b.norms, n)
	return n
}

// layers is embedded in every network to provide Params, Buffers and SetTraining
type layers struct {
	params []*tensor.Tensor
	norms  []*operators.BatchNorm
}

func (b *builder) finish() layers {
	return layers{params: b.params, norms: b.norms}
}

func (l *layers) Params() []*tensor.Tensor {
	return l.params
}

func (l *layers) Buffers() []*tensor.Tensor {
	var bufs []*tensor.Tensor
	for _, n := range l.norms {
		bufs = append(bufs, n.Buffers()...)
	}
	return bufs
}

func (l *layers) SetTraining(training bool) {
	for _, n := range l.norms {
		n.Training = training
	}
}
