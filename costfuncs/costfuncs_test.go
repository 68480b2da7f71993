package costfuncs

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

func random(rng *rand.Rand, shape ...int) *tensor.Tensor {
	t := tensor.New(shape...)
	for i := range t.Data {
		t.Data[i] = rng.Float64()*4 - 2
	}
	return t
}

func TestValues(t *testing.T) {
	outs := tensor.FromData([]float64{1, -1, 3, 0.5}, 2, 2)
	targets := tensor.FromData([]float64{0, 0, 0, 0.5}, 2, 2)

	assert.InDelta(t, 5.0/4, L1().Cost(outs, targets).Item(), 1e-12)
	assert.InDelta(t, 0.5*11/4, MSE().Cost(outs, targets).Item(), 1e-12)
	assert.InDelta(t, (0.5+0.5+2.5)/4, Huber(1).Cost(outs, targets).Item(), 1e-12)
}

func TestAbsZeroIffIdentical(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := random(rng, 2, 3, 4, 4)

	assert.Equal(t, 0.0, Abs().Cost(a, a.Detach()).Item())

	b := a.Detach()
	b.Data[7] += 1e-3
	assert.Greater(t, Abs().Cost(a, b).Item(), 0.0)
}

func TestCrossEntropy(t *testing.T) {
	logits := tensor.FromData([]float64{0, 2, -3, 800}, 4, 1)

	ones := CrossEntropy().Cost(logits, Label(logits, 1)).Item()
	want := (math.Log(2) + math.Log1p(math.Exp(-2)) + 3 + math.Log1p(math.Exp(-3)) + 0) / 4
	assert.InDelta(t, want, ones, 1e-12)

	// stays finite for large scores
	zeros := CrossEntropy().Cost(logits, Label(logits, 0)).Item()
	assert.False(t, math.IsInf(zeros, 0) || math.IsNaN(zeros))
	assert.InDelta(t, 800.0/4, zeros, 1)
}

func TestGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(2))

	for _, name := range []string{"abs", "mse", "huber", "cross-entropy"} {
		cf, err := ByName(name)
		require.NoError(t, err)

		outs := random(rng, 3, 4)
		targets := random(rng, 3, 4)
		if name == "cross-entropy" {
			targets = Label(outs, 1)
		}

		f := func() *tensor.Tensor { return cf.Cost(outs, targets) }

		analytic, err := tensor.AnalyticGradient(f, outs)
		require.NoError(t, err)
		assert.InDeltaSlice(t, tensor.NumericGradient(f, outs, 1e-6), analytic, 1e-6, name)

		if name != "cross-entropy" {
			analytic, err = tensor.AnalyticGradient(f, targets)
			require.NoError(t, err)
			assert.InDeltaSlice(t, tensor.NumericGradient(f, targets, 1e-6), analytic, 1e-6, name)
		}
	}
}

func TestTotalVariation(t *testing.T) {
	x := tensor.FromData([]float64{
		0, 1,
		2, 4,

		1, 1,
		1, 1,
	}, 2, 1, 2, 2)

	// first image: |0-1| + |2-4| + |0-2| + |1-4| = 8; second image is flat
	assert.InDelta(t, 4.0, TotalVariation(x).Item(), 1e-12)

	// same image flipped on both axes: every difference changes sign
	flipped := tensor.FromData([]float64{
		4, 2,
		1, 0,
	}, 1, 1, 2, 2)
	assert.InDelta(t, 8.0, TotalVariation(flipped).Item(), 1e-12)

	rng := rand.New(rand.NewSource(3))
	y := random(rng, 2, 3, 4, 5)
	f := func() *tensor.Tensor { return TotalVariation(y) }
	analytic, err := tensor.AnalyticGradient(f, y)
	require.NoError(t, err)
	assert.InDeltaSlice(t, tensor.NumericGradient(f, y, 1e-6), analytic, 1e-6)
}

func TestUniformity(t *testing.T) {
	spaced := []float64{-0.75, -0.25, 0.25, 0.75}
	assert.InDelta(t, 0, Uniformity(spaced), 1e-12)

	clustered := []float64{0, 0, 0, 0}
	assert.Greater(t, Uniformity(clustered), Uniformity(spaced))

	assert.Equal(t, 0.0, Uniformity(nil))

	// the input is left unsorted
	values := []float64{1, -1}
	Uniformity(values)
	assert.Equal(t, []float64{1, -1}, values)
}

func TestByName(t *testing.T) {
	cf, err := ByName("l1")
	require.NoError(t, err)
	assert.Equal(t, "abs", cf.TypeString())

	_, err = ByName("hinge")
	assert.Error(t, err)
}

func TestShapeMismatchPanics(t *testing.T) {
	assert.Panics(t, func() { L1().Cost(tensor.New(2, 2), tensor.New(4)) })
}
