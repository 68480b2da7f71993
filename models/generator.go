package models

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/condition"
	"github.com/kimwoo11/TimeMachiNet/operators"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Generator maps latent vectors, usually joined with conditions, to N×3×H×W images in
// [-1, 1].
//
// The input is projected to a small volume, which is doubled in size by each 2×2
// transposed convolution. Two final 1×1 stages bring the channels down to 3, the last of
// them through tanh.
type Generator struct {
	layers

	scheme  condition.Scheme
	in      int
	mini    int
	volume  int
	fc      *operators.Linear
	deconvs []*operators.ConvTranspose2D
	toRGB   []*operators.ConvTranspose2D
}

// NewGenerator builds a generator with weights drawn from 'rng'. It accepts inputs of size
// Latent+Condition.Width().
func NewGenerator(c Config, rng *rand.Rand) (*Generator, error) {
	mini, err := c.miniSize(len(c.GeneratorChannels)-1, "generator")
	if err != nil {
		return nil, err
	}

	b, err := newBuilder(c, rng)
	if err != nil {
		return nil, err
	}

	g := &Generator{
		scheme: c.Condition,
		in:     c.Latent + c.Condition.Width(),
		mini:   mini,
		volume: c.GeneratorChannels[0],
	}

	g.fc = b.linear("g_fc", g.in, g.volume*mini*mini)

	in := g.volume
	for i, out := range c.GeneratorChannels[1:] {
		name := fmt.Sprintf("g_deconv_%d", i+1)
		g.deconvs = append(g.deconvs, b.deconv(name, operators.ConvArgs{In: in, Out: out, Kernel: 2, Stride: 2}))
		in = out
	}

	n := len(g.deconvs)
	g.toRGB = []*operators.ConvTranspose2D{
		b.deconv(fmt.Sprintf("g_deconv_%d", n+1), operators.ConvArgs{In: in, Out: 3, Kernel: 1, Stride: 1}),
		b.deconv(fmt.Sprintf("g_deconv_%d", n+2), operators.ConvArgs{In: 3, Out: 3, Kernel: 1, Stride: 1}),
	}

	g.layers = b.finish()
	return g, nil
}

func (g *Generator) Name() string {
	return "generator"
}

// Forward generates images from N×(Latent+Width) inputs, which are expected to already
// contain the condition. Any other width panics.
func (g *Generator) Forward(z *tensor.Tensor) *tensor.Tensor {
	x := operators.ReLU(g.fc.Forward(z))
	x = tensor.Reshape(x, -1, g.volume, g.mini, g.mini)

	for _, d := range g.deconvs {
		x = operators.ReLU(d.Forward(x))
	}

	x = operators.ReLU(g.toRGB[0].Forward(x))
	return operators.Tanh(g.toRGB[1].Forward(x))
}

// ForwardCondition generates images from latent vectors and N×Width conditions.
func (g *Generator) ForwardCondition(z, cond *tensor.Tensor) *tensor.Tensor {
	return g.Forward(tensor.Concat(z, cond))
}

// ForwardIndices generates images from latent vectors and one (age, gender) pair of indices
// per vector.
func (g *Generator) ForwardIndices(z *tensor.Tensor, ages, genders []int) (*tensor.Tensor, error) {
	cond, err := g.scheme.Tensor(ages, genders)
	if err != nil {
		return nil, err
	}

	return g.ForwardCondition(z, cond), nil
}
