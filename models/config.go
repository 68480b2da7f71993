package models

import (
	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/condition"
)

// Config sets the sizes of the four networks
type Config struct {
	// ImageSize is the height and width of the (square) images
	ImageSize int `yaml:"image_size"`

	// Latent is the size of the encoder's output
	Latent int `yaml:"latent"`

	Condition condition.Scheme `yaml:"condition"`

	// output channels of each downsampling stage of the encoder
	EncoderChannels []int `yaml:"encoder_channels"`

	// channels of the generator's starting volume, then of each upsampling stage
	GeneratorChannels []int `yaml:"generator_channels"`

	// widths of the hidden layers of the latent discriminator
	LatentDiscDims []int `yaml:"latent_disc_dims"`

	// output channels of each stage of the image discriminator, and the width of its
	// hidden fully connected layer
	ImageDiscChannels []int `yaml:"image_disc_channels"`
	ImageDiscHidden   int   `yaml:"image_disc_hidden"`

	// Initializer names the weight initialization; see initializers.ByName
	Initializer string `yaml:"initializer"`
}

// DefaultConfig returns the full-size networks, for 128×128 images
func DefaultConfig() Config {
	return Config{
		ImageSize:         128,
		Latent:            50,
		Condition:         condition.Default,
		EncoderChannels:   []int{64, 128, 256, 512, 1024},
		GeneratorChannels: []int{1024, 1024, 512, 256, 128},
		LatentDiscDims:    []int{64, 32, 16},
		ImageDiscChannels: []int{16, 32, 64, 128},
		ImageDiscHidden:   1024,
		Initializer:       "default",
	}
}

// miniSize returns the size left after 'stages' halvings of the image, or an error if the
// image doesn't divide evenly.
func (c Config) miniSize(stages int, what string) (int, error) {
	if stages < 1 {
		return 0, errors.Errorf("Invalid %s: needs at least one stage", what)
	}

	div := 1 << uint(stages)
	if c.ImageSize < div || c.ImageSize%div != 0 {
		return 0, errors.Errorf("Invalid %s: image size %d is not divisible by 2^%d", what, c.ImageSize, stages)
	}

	return c.ImageSize / div, nil
}

// Validate checks that every network can be built from the configuration
func (c Config) Validate() error {
	if c.Latent < 1 {
		return errors.Errorf("Invalid latent size %d", c.Latent)
	} else if err := c.Condition.Validate(); err != nil {
		return err
	}

	if _, err := c.miniSize(len(c.EncoderChannels), "encoder"); err != nil {
		return err
	}
	if _, err := c.miniSize(len(c.GeneratorChannels)-1, "generator"); err != nil {
		return err
	}
	if _, err := c.miniSize(len(c.ImageDiscChannels), "image discriminator"); err != nil {
		return err
	}

	if len(c.LatentDiscDims) == 0 {
		return errors.New("Invalid latent discriminator: needs at least one hidden layer")
	} else if c.ImageDiscHidden < 1 {
		return errors.Errorf("Invalid image discriminator hidden size %d", c.ImageDiscHidden)
	}

	for _, set := range [][]int{c.EncoderChannels, c.GeneratorChannels, c.LatentDiscDims, c.ImageDiscChannels} {
		for _, n := range set {
			if n < 1 {
				return errors.Errorf("Invalid layer width %d in %v", n, set)
			}
		}
	}

	return nil
}
