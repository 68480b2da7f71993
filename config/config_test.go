package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, 50, c.Model.Latent)
	assert.Equal(t, 10, c.Model.Condition.Ages)
	assert.Equal(t, 2, c.Model.Condition.Genders)
	assert.Equal(t, 128, c.Model.ImageSize)
	assert.Equal(t, 2e-4, c.Train.LearningRate.Value)
	assert.Equal(t, []float64{0.9, 0.999}, c.Train.Betas)
	assert.Equal(t, 1e-5, c.Train.WeightDecay)
	assert.Equal(t, 64, c.Train.BatchSize)
	assert.Equal(t, 64, c.Train.ValidationSize())
	assert.Equal(t, 500, c.Train.SaveEvery)
	assert.Equal(t, LossWeights{Reg: 0, EZ: 0.001, DI: 0.1, DG: 0.001}, c.Train.Weights)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	doc := `
seed: 7
model:
  image_size: 64
  latent: 20
train:
  epochs: 3
  models: last
  valid_size: 10
  learning_rate:
    type: step
    value: 0.001
    steps:
      - iter: 100
        value: 0.0001
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(7), c.Seed)
	assert.Equal(t, 64, c.Model.ImageSize)
	assert.Equal(t, 20, c.Model.Latent)
	assert.Equal(t, []int{64, 128, 256, 512, 1024}, c.Model.EncoderChannels, "unset fields keep their defaults")
	assert.Equal(t, 3, c.Train.Epochs)
	assert.Equal(t, SaveLast, c.Train.Models)
	assert.Equal(t, 10, c.Train.ValidationSize())
	assert.Equal(t, "step", c.Train.LearningRate.Type)
	assert.Equal(t, "debug", c.Logging.Level)
	assert.Equal(t, 0.1, c.Train.Weights.DI)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("train: [1, 2"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("train:\n  models: sometimes\n"), 0644))
	_, err = Load(invalid)
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	c := Default()
	c.Seed = 42
	c.Train.Epochs = 9

	require.NoError(t, c.Write(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c, loaded)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"epochs":     func(c *Config) { c.Train.Epochs = 0 },
		"batch":      func(c *Config) { c.Train.BatchSize = 0 },
		"save":       func(c *Config) { c.Train.SaveEvery = 0 },
		"betas":      func(c *Config) { c.Train.Betas = []float64{0.9} },
		"decay":      func(c *Config) { c.Train.WeightDecay = -1 },
		"schedule":   func(c *Config) { c.Train.LearningRate.Type = "cyclic" },
		"image size": func(c *Config) { c.Model.ImageSize = 100 },
	} {
		c := Default()
		mutate(&c)
		assert.Error(t, c.Validate(), name)
	}
}
