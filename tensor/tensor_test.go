package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomParam(rng *rand.Rand, name string, shape ...int) *Tensor {
	p := NewParam(name, shape...)
	for i := range p.Data {
		p.Data[i] = rng.Float64()*2 - 1
	}
	return p
}

// sumSquares is a small differentiable reduction used to turn tensors into scalar losses.
func sumSquares(t *Tensor) *Tensor {
	out := Result([]int{1}, t)
	for _, v := range t.Data {
		out.Data[0] += v * v
	}
	out.SetBackward(func() {
		for i, v := range t.Data {
			t.Grad[i] += 2 * v * out.Grad[0]
		}
	})
	return out
}

func TestBackwardMatchesNumeric(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := randomParam(rng, "a", 2, 3, 2)
	b := randomParam(rng, "b", 2, 1, 2)

	f := func() *Tensor {
		c := Concat(a, Scale(b, 3))
		r := Reshape(c, 2, -1)
		return sumSquares(Add(r, r))
	}

	for _, x := range []*Tensor{a, b} {
		analytic, err := AnalyticGradient(f, x)
		require.NoError(t, err)
		numeric := NumericGradient(f, x, 1e-6)
		assert.InDeltaSlice(t, numeric, analytic, 1e-5, "gradient of %v", x)
	}
}

func TestBackwardRoutesOnlyToRequested(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randomParam(rng, "a", 4)
	b := randomParam(rng, "b", 4)

	loss := sumSquares(Add(a, b))

	require.NoError(t, Backward(loss, []*Tensor{a}))
	assert.NotEqual(t, make([]float64, 4), a.Grad)
	assert.Equal(t, make([]float64, 4), b.Grad, "unrequested parameter must not receive gradient")
}

func TestBackwardReusesGraph(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := randomParam(rng, "a", 3)
	b := randomParam(rng, "b", 3)

	shared := Add(a, b)
	first := sumSquares(shared)
	second := sumSquares(Scale(shared, 2))

	require.NoError(t, Backward(first, []*Tensor{a}))
	want := make([]float64, 3)
	for i := range want {
		want[i] = 2 * (a.Data[i] + b.Data[i])
	}
	assert.InDeltaSlice(t, want, a.Grad, 1e-12)

	// the intermediate gradient from the first pass must not leak into the second
	require.NoError(t, Backward(second, []*Tensor{b}))
	for i := range want {
		want[i] = 8 * (a.Data[i] + b.Data[i])
	}
	assert.InDeltaSlice(t, want, b.Grad, 1e-12)

	// and the forward values are untouched after parameters change
	before := first.Item()
	a.Data[0] += 10
	require.NoError(t, Backward(first, []*Tensor{b}))
	assert.Equal(t, before, first.Item())
}

func TestBackwardAccumulatesParams(t *testing.T) {
	a := NewParam("a", 1)
	a.Data[0] = 2

	loss := sumSquares(a)
	require.NoError(t, Backward(loss, []*Tensor{a}))
	require.NoError(t, Backward(loss, []*Tensor{a}))
	assert.Equal(t, []float64{8}, a.Grad)

	a.ZeroGrad()
	assert.Equal(t, []float64{0}, a.Grad)
}

func TestBackwardErrors(t *testing.T) {
	assert.Error(t, Backward(nil, nil))
	assert.Error(t, Backward(New(2), nil))

	// unreachable parameters are fine and get nothing
	a := NewParam("a", 1)
	assert.NoError(t, Backward(sumSquares(New(2)), []*Tensor{a}))
	assert.Equal(t, []float64{0}, a.Grad)
}

func TestConcatLayout(t *testing.T) {
	a := FromData([]float64{1, 2, 3, 4}, 2, 1, 2)
	b := FromData([]float64{5, 6, 7, 8, 9, 10, 11, 12}, 2, 2, 2)

	c := Concat(a, b)
	assert.Equal(t, []int{2, 3, 2}, c.Shape)
	assert.Equal(t, []float64{1, 2, 5, 6, 7, 8, 3, 4, 9, 10, 11, 12}, c.Data)
	assert.Equal(t, 9.0, c.At(1, 1, 0))
}

func TestRepeatAndSample(t *testing.T) {
	x := FromData([]float64{1, 2, 3}, 1, 3)
	r := Repeat(x, 4)
	assert.Equal(t, []int{4, 3}, r.Shape)
	assert.Equal(t, []float64{1, 2, 3}, r.Sample(3).Data)
	assert.Equal(t, []int{1, 3}, r.Sample(3).Shape)
}

func TestReshapePanics(t *testing.T) {
	x := New(2, 3)
	assert.Panics(t, func() { Reshape(x, 4, -1) })
	assert.Panics(t, func() { Reshape(x, -1, -1) })
	assert.Panics(t, func() { Reshape(x, 7) })
	assert.Equal(t, []int{3, 2}, Reshape(x, -1, 2).Shape)
}
