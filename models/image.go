package models

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/operators"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// ImageDiscriminator scores pairs of images and conditions, giving N×1 raw scores.
//
// The condition is not seen by the first stage. Its values are spread into constant planes
// and joined to the channels of the first stage's output.
type ImageDiscriminator struct {
	layers

	size   int
	width  int
	convs  []*operators.Conv2D
	bns    []*operators.BatchNorm
	hidden *operators.Linear
	out    *operators.Linear
}

// NewImageDiscriminator builds an image discriminator with weights drawn from 'rng'
func NewImageDiscriminator(c Config, rng *rand.Rand) (*ImageDiscriminator, error) {
	mini, err := c.miniSize(len(c.ImageDiscChannels), "image discriminator")
	if err != nil {
		return nil, err
	}

	b, err := newBuilder(c, rng)
	if err != nil {
		return nil, err
	}

	d := &ImageDiscriminator{size: c.ImageSize, width: c.Condition.Width()}

	in := 3
	for i, out := range c.ImageDiscChannels {
		if i == 1 {
			in += d.width
		}

		args := operators.ConvArgs{In: in, Out: out, Kernel: 2, Stride: 2}
		d.convs = append(d.convs, b.conv(fmt.Sprintf("dimg_conv_%d", i+1), args))
		d.bns = append(d.bns, b.norm(fmt.Sprintf("dimg_bn_%d", i+1), out))
		in = out
	}

	d.hidden = b.linear("dimg_fc_1", in*mini*mini, c.ImageDiscHidden)
	d.out = b.linear("dimg_fc_2", c.ImageDiscHidden, 1)
	d.layers = b.finish()

	return d, nil
}

func (d *ImageDiscriminator) Name() string {
	return "image_discriminator"
}

// Forward scores a batch of images with their N×Width conditions
func (d *ImageDiscriminator) Forward(images, cond *tensor.Tensor) *tensor.Tensor {
	checkImages(images, d.size)
	if len(cond.Shape) != 2 || cond.Shape[0] != images.Shape[0] || cond.Shape[1] != d.width {
		panic(fmt.Sprintf("Invalid conditions: shape %v, expected %d×%d", cond.Shape, images.Shape[0], d.width))
	}

	x := images
	for i := range d.convs {
		x = operators.ReLU(d.bns[i].Forward(d.convs[i].Forward(x)))
		if i == 0 {
			x = tensor.Concat(x, operators.BroadcastPlanes(cond, x.Shape[2], x.Shape[3]))
		}
	}

	x = operators.LeakyReLU(d.hidden.Forward(tensor.Flatten(x)), operators.DefaultLeakySlope)
	return d.out.Forward(x)
}
