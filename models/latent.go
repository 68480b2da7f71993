package models

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/operators"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// LatentDiscriminator scores N×Latent vectors, giving N×1 raw scores (logits). Higher
// scores mean the vector looks like a sample of the uniform prior.
type LatentDiscriminator struct {
	layers

	fcs []*operators.Linear
	bns []*operators.BatchNorm
	out *operators.Linear
}

// NewLatentDiscriminator builds a latent discriminator with weights drawn from 'rng'
func NewLatentDiscriminator(c Config, rng *rand.Rand) (*LatentDiscriminator, error) {
	b, err := newBuilder(c, rng)
	if err != nil {
		return nil, err
	}

	d := new(LatentDiscriminator)

	in := c.Latent
	for i, out := range c.LatentDiscDims {
		d.fcs = append(d.fcs, b.linear(fmt.Sprintf("dvec_fc_%d", i+1), in, out))
		d.bns = append(d.bns, b.norm(fmt.Sprintf("dvec_bn_%d", i+1), out))
		in = out
	}

	d.out = b.linear(fmt.Sprintf("dvec_fc_%d", len(c.LatentDiscDims)+1), in, 1)
	d.layers = b.finish()

	return d, nil
}

func (d *LatentDiscriminator) Name() string {
	return "latent_discriminator"
}

// Forward scores a batch of latent vectors
func (d *LatentDiscriminator) Forward(z *tensor.Tensor) *tensor.Tensor {
	x := z
	for i := range d.fcs {
		x = operators.ReLU(d.bns[i].Forward(d.fcs[i].Forward(x)))
	}

	return d.out.Forward(x)
}
