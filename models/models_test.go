package models

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimwoo11/TimeMachiNet/condition"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// smallConfig keeps the layout of the full networks at a size that runs quickly
func smallConfig() Config {
	return Config{
		ImageSize:         32,
		Latent:            8,
		Condition:         condition.Scheme{Ages: 3, Genders: 2},
		EncoderChannels:   []int{4, 4, 6, 6, 8},
		GeneratorChannels: []int{8, 6, 6, 4, 4},
		LatentDiscDims:    []int{6, 4},
		ImageDiscChannels: []int{4, 4, 6, 6},
		ImageDiscHidden:   8,
		Initializer:       "default",
	}
}

func images(rng *rand.Rand, n, size int) *tensor.Tensor {
	x := tensor.New(n, 3, size, size)
	for i := range x.Data {
		x.Data[i] = rng.Float64()*2 - 1
	}
	return x
}

func assertWithin(t *testing.T, x *tensor.Tensor, lower, upper float64) {
	for i, v := range x.Data {
		if v < lower || v > upper {
			t.Fatalf("value #%d (%v) is outside [%v, %v]", i, v, lower, upper)
		}
	}
}

func TestEncoder(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	e, err := NewEncoder(smallConfig(), rng)
	require.NoError(t, err)
	assert.Equal(t, "encoder", e.Name())
	assert.Len(t, e.Params(), 12)
	assert.Empty(t, e.Buffers())

	z := e.Forward(images(rng, 4, 32))
	assert.Equal(t, []int{4, 8}, z.Shape)
	assertWithin(t, z, -1, 1)

	assert.Panics(t, func() { e.Forward(images(rng, 1, 16)) })
}

func TestGenerator(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	c := smallConfig()
	g, err := NewGenerator(c, rng)
	require.NoError(t, err)

	z := tensor.New(3, c.Latent)
	for i := range z.Data {
		z.Data[i] = rng.Float64()*2 - 1
	}

	out, err := g.ForwardIndices(z, []int{0, 1, 2}, []int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 32, 32}, out.Shape)
	assertWithin(t, out, -1, 1)

	cond, err := c.Condition.Tensor([]int{0, 1, 2}, []int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, out.Data, g.ForwardCondition(z, cond).Data)
	assert.Equal(t, out.Data, g.Forward(tensor.Concat(z, cond)).Data)

	_, err = g.ForwardIndices(z, []int{0, 1, 3}, []int{1, 0, 1})
	assert.Error(t, err)

	// the latent vector alone does not have the expected width
	assert.Panics(t, func() { g.Forward(z) })
}

func TestLatentDiscriminatorConstantOnIdenticalInputs(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	c := smallConfig()
	d, err := NewLatentDiscriminator(c, rng)
	require.NoError(t, err)
	assert.Len(t, d.Buffers(), 4)

	z := tensor.New(5, c.Latent)
	for s := 0; s < 5; s++ {
		for j := 0; j < c.Latent; j++ {
			z.Data[s*c.Latent+j] = float64(j)/float64(c.Latent) - 0.5
		}
	}

	for _, training := range []bool{true, false} {
		d.SetTraining(training)
		scores := d.Forward(z)
		require.Equal(t, []int{5, 1}, scores.Shape)
		for _, v := range scores.Data {
			assert.InDelta(t, scores.Data[0], v, 1e-12, "training = %v", training)
		}
	}
}

func TestImageDiscriminator(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	c := smallConfig()
	d, err := NewImageDiscriminator(c, rng)
	require.NoError(t, err)

	// the second stage sees the condition planes
	assert.Equal(t, []int{4, 4 + 5, 2, 2}, d.convs[1].Weight.Shape)

	cond, err := c.Condition.Tensor([]int{0, 2}, []int{0, 1})
	require.NoError(t, err)

	x := images(rng, 2, 32)
	scores := d.Forward(x, cond)
	assert.Equal(t, []int{2, 1}, scores.Shape)

	assert.Panics(t, func() { d.Forward(x, tensor.New(2, 4)) })

	// in evaluation mode the score of one sample depends only on that sample's condition
	d.SetTraining(false)
	before := d.Forward(x, cond).Data[0]
	other, err := c.Condition.Tensor([]int{0, 1}, []int{0, 0})
	require.NoError(t, err)
	after := d.Forward(x, other)
	assert.Equal(t, before, after.Data[0])
}

func TestImageDiscriminatorGradient(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	c := smallConfig()
	d, err := NewImageDiscriminator(c, rng)
	require.NoError(t, err)
	d.SetTraining(false)

	x := images(rng, 1, 32)
	cond, err := c.Condition.Tensor([]int{1}, []int{0})
	require.NoError(t, err)

	score := func() *tensor.Tensor { return d.Forward(x, cond) }

	for _, in := range []*tensor.Tensor{cond, x} {
		analytic, err := tensor.AnalyticGradient(score, in)
		require.NoError(t, err)
		numeric := tensor.NumericGradient(score, in, 1e-6)
		assert.InDeltaSlice(t, numeric, analytic, 1e-5)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := smallConfig()
	a, err := NewEncoder(c, rand.New(rand.NewSource(6)))
	require.NoError(t, err)
	b, err := NewEncoder(c, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	x := images(rand.New(rand.NewSource(8)), 2, 32)
	require.NotEqual(t, a.Forward(x).Data, b.Forward(x).Data)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, a))
	require.NoError(t, Load(&buf, b))
	assert.Equal(t, a.Forward(x).Data, b.Forward(x).Data)
}

func TestSaveLoadBuffers(t *testing.T) {
	c := smallConfig()
	rng := rand.New(rand.NewSource(9))
	a, err := NewLatentDiscriminator(c, rng)
	require.NoError(t, err)
	b, err := NewLatentDiscriminator(c, rng)
	require.NoError(t, err)

	z := tensor.New(4, c.Latent)
	for i := range z.Data {
		z.Data[i] = rng.Float64()*2 - 1
	}
	a.Forward(z) // moves the running statistics

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, a))
	require.NoError(t, Load(&buf, b))

	a.SetTraining(false)
	b.SetTraining(false)
	assert.Equal(t, a.Forward(z).Data, b.Forward(z).Data)
}

func TestLoadMismatch(t *testing.T) {
	c := smallConfig()
	a, err := NewLatentDiscriminator(c, rand.New(rand.NewSource(10)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, a))
	saved := buf.Bytes()

	c.LatentDiscDims = []int{6, 5}
	b, err := NewLatentDiscriminator(c, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	before := append([]float64(nil), b.Params()[0].Data...)

	assert.Error(t, Load(bytes.NewReader(saved), b))
	assert.Equal(t, before, b.Params()[0].Data, "a failed load must not change anything")

	e, err := NewEncoder(smallConfig(), rand.New(rand.NewSource(12)))
	require.NoError(t, err)
	assert.Error(t, Load(bytes.NewReader(saved), e))
	assert.Error(t, Load(bytes.NewReader([]byte("{")), e))
}

func TestDeterministicConstruction(t *testing.T) {
	c := smallConfig()
	a, err := NewGenerator(c, rand.New(rand.NewSource(13)))
	require.NoError(t, err)
	b, err := NewGenerator(c, rand.New(rand.NewSource(13)))
	require.NoError(t, err)

	for i, p := range a.Params() {
		assert.Equal(t, p.Name, b.Params()[i].Name)
		assert.Equal(t, p.Data, b.Params()[i].Data)
	}
	assert.Equal(t, CountParams(a), CountParams(b))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, smallConfig().Validate())

	c := smallConfig()
	c.ImageSize = 48
	assert.Error(t, c.Validate(), "48 is not divisible by 32")
	_, err := NewEncoder(c, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	c = smallConfig()
	c.Latent = 0
	assert.Error(t, c.Validate())

	c = smallConfig()
	c.LatentDiscDims = nil
	assert.Error(t, c.Validate())

	c = smallConfig()
	c.Initializer = "orthogonal"
	_, err = NewEncoder(c, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}
