package operators

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/kimwoo11/TimeMachiNet/initializers"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// ConvArgs is given to the constructors of the convolutional layers. There is no padding;
// windows are k×k and placed every 'Stride' values in both spatial dimensions.
type ConvArgs struct {
	// number of input channels
	In int

	// number of output channels
	Out int

	// The size of the filter in both spatial dimensions
	Kernel int

	// The number of inputs between filters. Defaults to 1 if ≤ 0
	Stride int
}

func (a ConvArgs) stride() int {
	if a.Stride < 1 {
		return 1
	}

	return a.Stride
}

// Conv2D is a 2D convolutional layer over N×In×H×W values, producing N×Out×OH×OW with
// OH = (H - Kernel)/Stride + 1.
type Conv2D struct {
	ConvArgs

	// Out×In×Kernel×Kernel
	Weight *tensor.Tensor
	// Out
	Bias *tensor.Tensor
}

// Conv returns a convolutional layer whose parameters are named "<name>.weight" and
// "<name>.bias".
func Conv(name string, args ConvArgs, init initializers.Initializer, rng *rand.Rand) *Conv2D {
	args.Stride = args.stride()

	c := &Conv2D{
		ConvArgs: args,
		Weight:   tensor.NewParam(name+".weight", args.Out, args.In, args.Kernel, args.Kernel),
		Bias:     tensor.NewParam(name+".bias", args.Out),
	}

	fanIn := args.In * args.Kernel * args.Kernel
	fanOut := args.Out * args.Kernel * args.Kernel
	init.Set(c.Weight.Data, fanIn, fanOut, rng)
	init.Set(c.Bias.Data, fanIn, fanOut, rng)

	return c
}

// Params returns the weights and biases of the layer.
func (c *Conv2D) Params() []*tensor.Tensor {
	return []*tensor.Tensor{c.Weight, c.Bias}
}

// OutputSize gives the spatial size of the output for an input of the given size.
func (c *Conv2D) OutputSize(h, w int) (int, int) {
	return (h-c.Kernel)/c.Stride + 1, (w-c.Kernel)/c.Stride + 1
}

// Forward applies the convolution.
func (c *Conv2D) Forward(x *tensor.Tensor) *tensor.Tensor {
	if len(x.Shape) != 4 || x.Shape[1] != c.In {
		panic(fmt.Sprintf("Can't apply convolution %v, input shape %v does not have %d channels", c.Weight, x.Shape, c.In))
	} else if x.Shape[2] < c.Kernel || x.Shape[3] < c.Kernel {
		panic(fmt.Sprintf("Can't apply convolution %v, input shape %v is smaller than the kernel", c.Weight, x.Shape))
	}

	n, h, w := x.Shape[0], x.Shape[2], x.Shape[3]
	oh, ow := c.OutputSize(h, w)

	p := patches{n: n, c: c.In, h: h, w: w, k: c.Kernel, s: c.Stride, gh: oh, gw: ow}
	K, P, grid := p.rows(), p.cols(), oh*ow

	cols := make([]float64, K*P)
	p.im2col(x.Data, cols)

	W := matrix(c.Weight.Data, c.Out, K)
	outCM := make([]float64, c.Out*P)
	gemm(false, false, 1, W, matrix(cols, K, P), 0, matrix(outCM, c.Out, P))

	out := tensor.Result([]int{n, c.Out, oh, ow}, x, c.Weight, c.Bias)
	fromChannelMajor(outCM, out.Data, n, c.Out, grid)
	addChannelBias(out.Data, c.Bias.Data, n, c.Out, grid)

	out.SetBackward(func() {
		dCM := make([]float64, c.Out*P)
		toChannelMajor(out.Grad, dCM, n, c.Out, grid)
		dY := matrix(dCM, c.Out, P)

		if c.Weight.Active() {
			gemm(false, true, 1, dY, matrix(cols, K, P), 1, matrix(c.Weight.Grad, c.Out, K))
		}

		if c.Bias.Active() {
			for o := 0; o < c.Out; o++ {
				var sum float64
				for _, g := range dCM[o*P : (o+1)*P] {
					sum += g
				}
				c.Bias.Grad[o] += sum
			}
		}

		if x.Active() {
			dCols := make([]float64, K*P)
			gemm(true, false, 1, W, dY, 0, matrix(dCols, K, P))
			p.col2im(dCols, x.Grad)
		}
	})

	return out
}

// addChannelBias adds bias[c] to every value of channel c, for n×c×g values.
func addChannelBias(data, bias []float64, n, c, g int) {
	for s := 0; s < n; s++ {
		for ch := 0; ch < c; ch++ {
			b := bias[ch]
			for j := range data[(s*c+ch)*g : (s*c+ch+1)*g] {
				data[(s*c+ch)*g+j] += b
			}
		}
	}
}

// channelSums adds, for every channel c, the sum of its values in n×c×g 'data' to sums[c].
func channelSums(data, sums []float64, n, c, g int) {
	for s := 0; s < n; s++ {
		for ch := 0; ch < c; ch++ {
			sums[ch] += floats.Sum(data[(s*c+ch)*g : (s*c+ch+1)*g])
		}
	}
}
