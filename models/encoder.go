package models

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/operators"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Encoder maps N×3×H×W images in [-1, 1] to N×Latent vectors in [-1, 1].
//
// Each stage is a 2×2 convolution with stride 2 followed by ReLU, halving the image; the
// result is flattened and projected to the latent size through tanh.
type Encoder struct {
	layers

	size  int
	convs []*operators.Conv2D
	fc    *operators.Linear
}

// NewEncoder builds an encoder with weights drawn from 'rng'
func NewEncoder(c Config, rng *rand.Rand) (*Encoder, error) {
	mini, err := c.miniSize(len(c.EncoderChannels), "encoder")
	if err != nil {
		return nil, err
	}

	b, err := newBuilder(c, rng)
	if err != nil {
		return nil, err
	}

	e := &Encoder{size: c.ImageSize}

	in := 3
	for i, out := range c.EncoderChannels {
		name := fmt.Sprintf("e_conv_%d", i+1)
		e.convs = append(e.convs, b.conv(name, operators.ConvArgs{In: in, Out: out, Kernel: 2, Stride: 2}))
		in = out
	}

	e.fc = b.linear("e_fc_1", in*mini*mini, c.Latent)
	e.layers = b.finish()

	return e, nil
}

func (e *Encoder) Name() string {
	return "encoder"
}

// Forward encodes a batch of images. It panics if the images are not 3×Size×Size.
func (e *Encoder) Forward(images *tensor.Tensor) *tensor.Tensor {
	checkImages(images, e.size)

	x := images
	for _, c := range e.convs {
		x = operators.ReLU(c.Forward(x))
	}

	return operators.Tanh(e.fc.Forward(tensor.Flatten(x)))
}

func checkImages(images *tensor.Tensor, size int) {
	s := images.Shape
	if len(s) != 4 || s[1] != 3 || s[2] != size || s[3] != size {
		panic(fmt.Sprintf("Invalid image batch: shape %v, expected N×3×%d×%d", s, size, size))
	}
}
