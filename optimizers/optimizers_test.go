package optimizers

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

func param(name string, values ...float64) *tensor.Tensor {
	p := tensor.NewParam(name, len(values))
	copy(p.Data, values)
	return p
}

func TestAdamFirstStep(t *testing.T) {
	p := param("w", 1, -2, 3)
	copy(p.Grad, []float64{0.5, -0.1, 0})

	a, err := Adam([]*tensor.Tensor{p}, hyperparams.Constant(0.1))
	require.NoError(t, err)
	a.Step()

	// after bias correction the first update is lr·g/(|g|+ε), i.e. lr·sign(g)
	assert.InDelta(t, 0.9, p.Data[0], 1e-6)
	assert.InDelta(t, -1.9, p.Data[1], 1e-6)
	assert.Equal(t, 3.0, p.Data[2])
	assert.Equal(t, 1, a.Iterations())
}

func TestAdamMatchesReference(t *testing.T) {
	p := param("w", 0.5)
	a, err := Adam([]*tensor.Tensor{p}, hyperparams.Constant(2e-4))
	require.NoError(t, err)
	_, err = a.Betas(0.9, 0.999)
	require.NoError(t, err)
	a.Penalty(penalties.WeightDecay(1e-5))

	w, m, v := 0.5, 0.0, 0.0
	for step := 1; step <= 5; step++ {
		grad := 0.3 * float64(step)
		p.Grad[0] = grad
		a.Step()

		g := grad + 1e-5*w
		m = 0.9*m + 0.1*g
		v = 0.999*v + 0.001*g*g
		mHat := m / (1 - math.Pow(0.9, float64(step)))
		vHat := v / (1 - math.Pow(0.999, float64(step)))
		w -= 2e-4 * mHat / (math.Sqrt(vHat) + 1e-8)

		assert.InDelta(t, w, p.Data[0], 1e-12, "step %d", step)
	}
}

func TestZeroGrad(t *testing.T) {
	p := param("w", 1, 2)
	copy(p.Grad, []float64{3, 4})

	s, err := GradientDescent([]*tensor.Tensor{p}, hyperparams.Constant(1))
	require.NoError(t, err)
	s.ZeroGrad()
	assert.Equal(t, []float64{0, 0}, p.Grad)
}

func TestGradientDescent(t *testing.T) {
	p := param("w", 1, 2)

	s, err := GradientDescent([]*tensor.Tensor{p}, hyperparams.Step(0.5).Add(1, 0.1))
	require.NoError(t, err)
	s.Momentum(0.5)

	copy(p.Grad, []float64{1, -1})
	s.Step()
	assert.InDeltaSlice(t, []float64{0.5, 2.5}, p.Data, 1e-12)

	// velocity is 0.5·1 + 1 = 1.5, with the learning rate of iteration 1
	s.Step()
	assert.InDeltaSlice(t, []float64{0.35, 2.65}, p.Data, 1e-12)
}

func TestSaveLoad(t *testing.T) {
	p := param("w", 1, 2)
	a, err := Adam([]*tensor.Tensor{p}, hyperparams.Constant(0.01))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		copy(p.Grad, []float64{0.2, -0.4})
		a.Step()
	}

	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))

	q := param("w", p.Data...)
	b, err := Adam([]*tensor.Tensor{q}, hyperparams.Constant(0.01))
	require.NoError(t, err)
	require.NoError(t, b.Load(bytes.NewReader(buf.Bytes())))
	assert.Equal(t, 3, b.Iterations())

	copy(p.Grad, []float64{0.1, 0.1})
	copy(q.Grad, []float64{0.1, 0.1})
	a.Step()
	b.Step()
	assert.Equal(t, p.Data, q.Data)
}

func TestLoadMismatch(t *testing.T) {
	a, err := Adam([]*tensor.Tensor{param("w", 1, 2)}, hyperparams.Constant(0.01))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))
	saved := buf.Bytes()

	wrongSize, err := Adam([]*tensor.Tensor{param("w", 1, 2, 3)}, hyperparams.Constant(0.01))
	require.NoError(t, err)
	assert.Error(t, wrongSize.Load(bytes.NewReader(saved)))

	wrongName, err := Adam([]*tensor.Tensor{param("u", 1, 2)}, hyperparams.Constant(0.01))
	require.NoError(t, err)
	assert.Error(t, wrongName.Load(bytes.NewReader(saved)))

	sgd, err := GradientDescent([]*tensor.Tensor{param("w", 1, 2)}, hyperparams.Constant(0.01))
	require.NoError(t, err)
	assert.Error(t, sgd.Load(bytes.NewReader(saved)))
}

func TestConstructionErrors(t *testing.T) {
	_, err := Adam([]*tensor.Tensor{param("w", 1), param("w", 2)}, hyperparams.Constant(1))
	assert.Error(t, err, "duplicate names")

	_, err = Adam([]*tensor.Tensor{tensor.New(2)}, hyperparams.Constant(1))
	assert.Error(t, err, "not a parameter")

	_, err = Adam([]*tensor.Tensor{param("w", 1)}, nil)
	assert.Error(t, err, "no learning rate")

	a, err := Adam([]*tensor.Tensor{param("w", 1)}, hyperparams.Constant(1))
	require.NoError(t, err)
	_, err = a.Betas(1, 0.5)
	assert.Error(t, err)
}

func TestByName(t *testing.T) {
	o, err := ByName([]*tensor.Tensor{param("w", 1)}, Args{Type: "adam", LearningRate: hyperparams.Constant(1), Betas: [2]float64{0.5, 0.9}})
	require.NoError(t, err)
	assert.Equal(t, "adam", o.TypeString())

	o, err = ByName([]*tensor.Tensor{param("w", 1)}, Args{Type: "sgd", LearningRate: hyperparams.Constant(1)})
	require.NoError(t, err)
	assert.Equal(t, "sgd", o.TypeString())

	_, err = ByName(nil, Args{Type: "rmsprop", LearningRate: hyperparams.Constant(1)})
	assert.Error(t, err)
}
