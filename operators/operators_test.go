package operators

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimwoo11/TimeMachiNet/initializers"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

func randomInput(rng *rand.Rand, shape ...int) *tensor.Tensor {
	x := tensor.New(shape...)
	for i := range x.Data {
		x.Data[i] = rng.Float64()*2 - 1
	}
	return x
}

// weightedSum reduces t with fixed random weights, so that no gradient cancels by symmetry
func weightedSum(rng *rand.Rand, t *tensor.Tensor) func(*tensor.Tensor) *tensor.Tensor {
	weights := make([]float64, t.Size())
	for i := range weights {
		weights[i] = rng.Float64()*2 - 1
	}

	return func(t *tensor.Tensor) *tensor.Tensor {
		out := tensor.Result([]int{1}, t)
		for i, v := range t.Data {
			out.Data[0] += weights[i] * v
		}
		out.SetBackward(func() {
			for i := range t.Data {
				t.Grad[i] += weights[i] * out.Grad[0]
			}
		})
		return out
	}
}

// checkGradients compares the gradient found by Backward with a numeric estimate, for
// every tensor in 'wrt'
func checkGradients(t *testing.T, rng *rand.Rand, forward func() *tensor.Tensor, wrt ...*tensor.Tensor) {
	loss := weightedSum(rng, forward())
	f := func() *tensor.Tensor { return loss(forward()) }

	for _, x := range wrt {
		analytic, err := tensor.AnalyticGradient(f, x)
		require.NoError(t, err)
		numeric := tensor.NumericGradient(f, x, 1e-6)
		assert.InDeltaSlice(t, numeric, analytic, 1e-5, "gradient of %v", x)
	}
}

func TestLinear(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	l := Neurons("fc", 5, 3, initializers.FanIn(), rng)
	x := randomInput(rng, 4, 5)

	y := l.Forward(x)
	require.Equal(t, []int{4, 3}, y.Shape)

	// first output, computed by hand
	want := l.Bias.Data[0]
	for i := 0; i < 5; i++ {
		want += x.Data[i] * l.Weight.Data[i]
	}
	assert.InDelta(t, want, y.Data[0], 1e-12)

	checkGradients(t, rng, func() *tensor.Tensor { return l.Forward(x) }, x, l.Weight, l.Bias)
}

func TestLinearBadShape(t *testing.T) {
	l := Neurons("fc", 5, 3, initializers.FanIn(), rand.New(rand.NewSource(1)))
	assert.Panics(t, func() { l.Forward(tensor.New(2, 4)) })
}

func TestConvShapes(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c := Conv("conv", ConvArgs{In: 3, Out: 4, Kernel: 2, Stride: 2}, initializers.FanIn(), rng)

	y := c.Forward(randomInput(rng, 2, 3, 8, 8))
	assert.Equal(t, []int{2, 4, 4, 4}, y.Shape)

	c = Conv("conv", ConvArgs{In: 3, Out: 4, Kernel: 3}, initializers.FanIn(), rng)
	assert.Equal(t, 1, c.Stride)
	y = c.Forward(randomInput(rng, 1, 3, 5, 7))
	assert.Equal(t, []int{1, 4, 3, 5}, y.Shape)
}

func TestConvValues(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := Conv("conv", ConvArgs{In: 1, Out: 1, Kernel: 2, Stride: 2}, initializers.FanIn(), rng)
	copy(c.Weight.Data, []float64{1, 2, 3, 4})
	c.Bias.Data[0] = 0.5

	x := tensor.FromData([]float64{
		1, 0, 2, 0,
		0, 1, 0, 2,
		3, 0, 4, 0,
		0, 3, 0, 4,
	}, 1, 1, 4, 4)

	y := c.Forward(x)
	assert.Equal(t, []float64{5.5, 10.5, 15.5, 20.5}, y.Data)
}

func TestConvGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, args := range []ConvArgs{
		{In: 2, Out: 3, Kernel: 2, Stride: 2},
		{In: 2, Out: 2, Kernel: 3, Stride: 1},
		{In: 3, Out: 2, Kernel: 1},
	} {
		c := Conv("conv", args, initializers.FanIn(), rng)
		x := randomInput(rng, 2, args.In, 5, 5)
		checkGradients(t, rng, func() *tensor.Tensor { return c.Forward(x) }, x, c.Weight, c.Bias)
	}
}

func TestDeconvUpsamples(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	d := Deconv("deconv", ConvArgs{In: 1, Out: 1, Kernel: 2, Stride: 2}, initializers.FanIn(), rng)
	copy(d.Weight.Data, []float64{1, 2, 3, 4})
	d.Bias.Data[0] = 0

	y := d.Forward(tensor.FromData([]float64{1, 10}, 1, 1, 1, 2))
	require.Equal(t, []int{1, 1, 2, 4}, y.Shape)
	assert.Equal(t, []float64{
		1, 2, 10, 20,
		3, 4, 30, 40,
	}, y.Data)
}

func TestDeconvGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for _, args := range []ConvArgs{
		{In: 3, Out: 2, Kernel: 2, Stride: 2},
		{In: 2, Out: 2, Kernel: 3, Stride: 2},
		{In: 2, Out: 3, Kernel: 1},
	} {
		d := Deconv("deconv", args, initializers.FanIn(), rng)
		x := randomInput(rng, 2, args.In, 3, 2)
		checkGradients(t, rng, func() *tensor.Tensor { return d.Forward(x) }, x, d.Weight, d.Bias)
	}
}

// the transposed convolution is the adjoint of the convolution with the same weights:
// <conv(x), y> == <x, deconv(y)> when biases are zero
func TestDeconvIsAdjoint(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	args := ConvArgs{In: 2, Out: 3, Kernel: 2, Stride: 2}
	c := Conv("conv", args, initializers.FanIn(), rng)
	d := Deconv("deconv", ConvArgs{In: 3, Out: 2, Kernel: 2, Stride: 2}, initializers.FanIn(), rng)
	copy(d.Weight.Data, c.Weight.Data)
	for i := range c.Bias.Data {
		c.Bias.Data[i] = 0
	}
	for i := range d.Bias.Data {
		d.Bias.Data[i] = 0
	}

	x := randomInput(rng, 1, 2, 4, 4)
	y := randomInput(rng, 1, 3, 2, 2)

	var lhs, rhs float64
	for i, v := range c.Forward(x).Data {
		lhs += v * y.Data[i]
	}
	for i, v := range d.Forward(y).Data {
		rhs += v * x.Data[i]
	}
	assert.InDelta(t, lhs, rhs, 1e-10)
}

func TestBatchNormTraining(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	b := Norm("bn", 3)
	x := randomInput(rng, 4, 3, 2, 2)

	y := b.Forward(x)

	// every channel of the output has zero mean and unit variance
	for ch := 0; ch < 3; ch++ {
		var sum, sq float64
		for s := 0; s < 4; s++ {
			for _, v := range y.Data[(s*3+ch)*4 : (s*3+ch+1)*4] {
				sum += v
				sq += v * v
			}
		}
		assert.InDelta(t, 0, sum/16, 1e-9)
		assert.InDelta(t, 1, sq/16, 1e-3)
	}

	// one update of the running statistics, away from their initial values
	for ch := 0; ch < 3; ch++ {
		assert.NotEqual(t, 0.0, b.RunningMean.Data[ch])
		assert.NotEqual(t, 1.0, b.RunningVar.Data[ch])
	}

	for i := range b.Gamma.Data {
		b.Gamma.Data[i] = rng.Float64() + 0.5
		b.Beta.Data[i] = rng.Float64() - 0.5
	}
	checkGradients(t, rng, func() *tensor.Tensor { return b.Forward(x) }, x, b.Gamma, b.Beta)
}

func TestChannelSums(t *testing.T) {
	// 2×2×3: channel 0 holds 1..3 and 7..9, channel 1 holds 4..6 and 10..12
	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	sums := []float64{1, 0}
	channelSums(data, sums, 2, 2, 3)
	assert.Equal(t, []float64{1 + 6 + 24, 15 + 33}, sums)
}

func TestBatchNormEval(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	b := Norm("bn", 2)
	b.Training = false
	b.RunningMean.Data = []float64{1, -1}
	b.RunningVar.Data = []float64{4, 1}

	x := tensor.FromData([]float64{3, 5, -1, 0}, 2, 2)
	y := b.Forward(x)

	assert.InDelta(t, 2/math.Sqrt(4+bnEpsilon), y.Data[0], 1e-12)
	assert.InDelta(t, 6/math.Sqrt(1+bnEpsilon), y.Data[1], 1e-12)
	assert.Equal(t, []float64{1, -1}, b.RunningMean.Data, "eval mode must not update statistics")

	x = randomInput(rng, 3, 2)
	checkGradients(t, rng, func() *tensor.Tensor { return b.Forward(x) }, x, b.Gamma, b.Beta)
}

func TestActivations(t *testing.T) {
	x := tensor.FromData([]float64{-2, -0.5, 0.5, 2}, 2, 2)

	assert.Equal(t, []float64{0, 0, 0.5, 2}, ReLU(x).Data)
	assert.InDeltaSlice(t, []float64{-0.02, -0.005, 0.5, 2}, LeakyReLU(x, DefaultLeakySlope).Data, 1e-12)
	assert.InDeltaSlice(t, []float64{math.Tanh(-2), math.Tanh(-0.5), math.Tanh(0.5), math.Tanh(2)}, Tanh(x).Data, 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), Logistic(x).Data[3], 1e-12)

	rng := rand.New(rand.NewSource(10))
	for _, f := range []Activation{ReLU, Tanh, Logistic, func(x *tensor.Tensor) *tensor.Tensor { return LeakyReLU(x, 0.2) }} {
		f := f
		in := randomInput(rng, 3, 4)
		checkGradients(t, rng, func() *tensor.Tensor { return f(in) }, in)
	}
}

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"relu", "leaky-relu", "tanh", "logistic", "identity"} {
		f, err := ActivationByName(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := ActivationByName("swish")
	assert.Error(t, err)

	require.NoError(t, SetDefault("leaky-slope", 0.2))
	defer SetDefault("leaky-slope", DefaultLeakySlope)

	f, err := ActivationByName("leaky-relu")
	require.NoError(t, err)
	assert.InDelta(t, -0.2, f(tensor.FromData([]float64{-1}, 1)).Data[0], 1e-12)

	assert.Error(t, SetDefault("conv-bias", 1))
	assert.Error(t, SetDefault("leaky-slope", math.NaN()))
}

func TestBroadcastPlanes(t *testing.T) {
	cond := tensor.FromData([]float64{1, -1, 0.5, 2}, 2, 2)
	p := BroadcastPlanes(cond, 2, 3)

	require.Equal(t, []int{2, 2, 2, 3}, p.Shape)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, p.Data[:6])
	assert.Equal(t, []float64{2, 2, 2, 2, 2, 2}, p.Data[18:])

	rng := rand.New(rand.NewSource(11))
	checkGradients(t, rng, func() *tensor.Tensor { return BroadcastPlanes(cond, 2, 3) }, cond)
}
