// Package config holds the settings of a training run, read from YAML.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/kimwoo11/TimeMachiNet/hyperparams"
	"github.com/kimwoo11/TimeMachiNet/models"
)

// Saving modes for network checkpoints
const (
	// SaveAlways writes the networks at every checkpoint
	SaveAlways = "always"
	// SaveLast writes the networks only once training has finished
	SaveLast = "last"
)

// Config is the full configuration of a run
type Config struct {
	// Seed is the seed of every random number generator in the run
	Seed int64 `yaml:"seed"`

	// Device names where the networks run. See timemachinet.ResolveDevice
	Device string `yaml:"device"`

	Model   models.Config `yaml:"model"`
	Train   Train         `yaml:"train"`
	Logging Logging       `yaml:"logging"`
}

// Train holds everything that affects how the networks are trained
type Train struct {
	Epochs    int `yaml:"epochs"`
	BatchSize int `yaml:"batch_size"`

	// ValidSize is the number of images held out for validation. 0 means BatchSize.
	ValidSize int `yaml:"valid_size"`

	// SaveEvery is the number of steps between checkpoints
	SaveEvery int `yaml:"save_every"`

	// Models is either "always" or "last"
	Models string `yaml:"models"`

	Optimizer    string               `yaml:"optimizer"`
	LearningRate hyperparams.Schedule `yaml:"learning_rate"`
	Betas        []float64            `yaml:"betas"`
	Momentum     float64              `yaml:"momentum"`

	// Penalty names the regularization applied by every optimizer; see penalties.ByName
	Penalty     string  `yaml:"penalty"`
	WeightDecay float64 `yaml:"weight_decay"`

	// Reconstruction names the cost function between images and their reconstructions
	Reconstruction string `yaml:"reconstruction"`

	Weights LossWeights `yaml:"weights"`
}

// LossWeights scale the terms of the training losses
type LossWeights struct {
	// total variation of generated images
	Reg float64 `yaml:"reg"`
	// encoder fooling the latent discriminator
	EZ float64 `yaml:"ez"`
	// image discriminator
	DI float64 `yaml:"di"`
	// generator fooling the image discriminator
	DG float64 `yaml:"dg"`
}

// Logging configures the logger
type Logging struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the settings of the full-size model: 128×128 faces in batches of 64
func Default() Config {
	return Config{
		Seed:   1,
		Device: "auto",
		Model:  models.DefaultConfig(),
		Train: Train{
			Epochs:         1,
			BatchSize:      64,
			SaveEvery:      500,
			Models:         SaveAlways,
			Optimizer:      "adam",
			LearningRate:   hyperparams.Schedule{Type: "constant", Value: 2e-4},
			Betas:          []float64{0.9, 0.999},
			Penalty:        "weight-decay",
			WeightDecay:    1e-5,
			Reconstruction: "l1",
			Weights: LossWeights{
				Reg: 0,
				EZ:  0.001,
				DI:  0.1,
				DG:  0.001,
			},
		},
		Logging: Logging{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Fields missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrapf(err, "Can't read config file %q", path)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrapf(err, "Can't parse config file %q", path)
	}

	if err := c.Validate(); err != nil {
		return c, errors.Wrapf(err, "Invalid config file %q", path)
	}

	return c, nil
}

// Write saves the configuration as YAML, so that a run can be repeated
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "Can't encode config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "Can't write config file %q", path)
	}
	return nil
}

// ValidationSize returns the number of images held out for validation
func (t Train) ValidationSize() int {
	if t.ValidSize <= 0 {
		return t.BatchSize
	}
	return t.ValidSize
}

// Validate checks every setting that can be checked without building the networks
func (c Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return err
	}

	t := c.Train
	switch {
	case t.Epochs < 1:
		return errors.Errorf("Invalid number of epochs %d", t.Epochs)
	case t.BatchSize < 1:
		return errors.Errorf("Invalid batch size %d", t.BatchSize)
	case t.SaveEvery < 1:
		return errors.Errorf("Invalid save interval %d", t.SaveEvery)
	case t.Models != SaveAlways && t.Models != SaveLast:
		return errors.Errorf("Invalid models saving mode %q, must be %q or %q", t.Models, SaveAlways, SaveLast)
	case len(t.Betas) != 2:
		return errors.Errorf("Invalid betas %v, need exactly two", t.Betas)
	case t.WeightDecay < 0:
		return errors.Errorf("Invalid weight decay %v", t.WeightDecay)
	}

	if _, err := t.LearningRate.Build(); err != nil {
		return err
	}

	return nil
}
