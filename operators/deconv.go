package operators

import (
	"fmt"
	"math/rand"

	"github.com/kimwoo11/TimeMachiNet/initializers"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// ConvTranspose2D is the transpose (adjoint) of Conv2D: it maps N×In×H×W to N×Out×OH×OW
// with OH = (H-1)·Stride + Kernel. With Kernel == Stride it is an exact upsampling by
// Stride; with Kernel == Stride == 1 it mixes channels per pixel.
type ConvTranspose2D struct {
	ConvArgs

	// In×Out×Kernel×Kernel
	Weight *tensor.Tensor
	// Out
	Bias *tensor.Tensor
}

// Deconv returns a transposed convolutional layer whose parameters are named
// "<name>.weight" and "<name>.bias".
func Deconv(name string, args ConvArgs, init initializers.Initializer, rng *rand.Rand) *ConvTranspose2D {
	args.Stride = args.stride()

	d := &ConvTranspose2D{
		ConvArgs: args,
		Weight:   tensor.NewParam(name+".weight", args.In, args.Out, args.Kernel, args.Kernel),
		Bias:     tensor.NewParam(name+".bias", args.Out),
	}

	// the weight's second dimension is the fan-in, as it would be for the matching Conv2D
	fanIn := args.Out * args.Kernel * args.Kernel
	fanOut := args.In * args.Kernel * args.Kernel
	init.Set(d.Weight.Data, fanIn, fanOut, rng)
	init.Set(d.Bias.Data, fanIn, fanOut, rng)

	return d
}

// Params returns the weights and biases of the layer.
func (d *ConvTranspose2D) Params() []*tensor.Tensor {
	return []*tensor.Tensor{d.Weight, d.Bias}
}

// OutputSize gives the spatial size of the output for an input of the given size.
func (d *ConvTranspose2D) OutputSize(h, w int) (int, int) {
	return (h-1)*d.Stride + d.Kernel, (w-1)*d.Stride + d.Kernel
}

// Forward applies the transposed convolution.
func (d *ConvTranspose2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	if len(x.Shape) != 4 || x.Shape[1] != d.In {
		panic(fmt.Sprintf("Can't apply transposed convolution %v, input shape %v does not have %d channels", d.Weight, x.Shape, d.In))
	}

	n, h, w := x.Shape[0], x.Shape[2], x.Shape[3]
	oh, ow := d.OutputSize(h, w)

	// the output volume is cut into windows laid out on the input's grid
	p := patches{n: n, c: d.Out, h: oh, w: ow, k: d.Kernel, s: d.Stride, gh: h, gw: w}
	K, P, grid := p.rows(), p.cols(), h*w

	xCM := make([]float64, d.In*P)
	toChannelMajor(x.Data, xCM, n, d.In, grid)
	X := matrix(xCM, d.In, P)
	W := matrix(d.Weight.Data, d.In, K)

	cols := make([]float64, K*P)
	gemm(true, false, 1, W, X, 0, matrix(cols, K, P))

	out := tensor.Result([]int{n, d.Out, oh, ow}, x, d.Weight, d.Bias)
	p.col2im(cols, out.Data)
	addChannelBias(out.Data, d.Bias.Data, n, d.Out, oh*ow)

	out.SetBackward(func() {
		dCols := make([]float64, K*P)
		p.im2col(out.Grad, dCols)
		dC := matrix(dCols, K, P)

		if d.Weight.Active() {
			gemm(false, true, 1, X, dC, 1, matrix(d.Weight.Grad, d.In, K))
		}

		if d.Bias.Active() {
			channelSums(out.Grad, d.Bias.Grad, n, d.Out, oh*ow)
		}

		if x.Active() {
			dX := make([]float64, d.In*P)
			gemm(false, false, 1, W, dC, 0, matrix(dX, d.In, P))
			fromChannelMajor(dX, x.Grad, n, d.In, grid)
		}
	})

	return out
}
