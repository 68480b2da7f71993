// Package timemachinet trains a conditional adversarial autoencoder that ages faces. A face is
// encoded into a latent vector, and the generator draws it again from that vector joined with
// an age group and a gender. Changing the age group while keeping the vector shows the same
// face at a different age.
//
// Creating Networks
//
// Everything about a Network is described by a config.Config, usually read from YAML:
//
//		c, err := config.Load("run.yaml")
//		dev, err := timemachinet.ResolveDevice(c.Device)
//		net, err := timemachinet.New(c, dev, logger)
//
// A Network holds four networks (found in the subpackage "models"): the Encoder, the
// Generator, the LatentDiscriminator, which tells encodings apart from samples of a uniform
// prior, and the ImageDiscriminator, which tells real faces apart from generated ones. Each
// is built from the layers in "operators" and trained by one of three optimizers from
// "optimizers". The Encoder and Generator share one.
//
// Training and Testing
//
// One training step is taken with:
//
//		func (net *Network) Step(images, conds *tensor.Tensor) (StepLosses, error)
//
// The networks run once, and the three optimizers are updated in turn from that single
// forward pass. Full training over a dataset (from the subpackage "dataset") is done with
// Train, which also writes checkpoints, loss plots and validation images:
//
//		err := net.Train(ctx, timemachinet.TrainArgs{
//			TrainData: train,
//			ValidData: valid,
//			Root:      "out",
//		})
//
// As with the other arguments, more information can be found in TrainArgs. A single face can
// be shown at every age group with TestImage.
//
// Saving and Loading
//
// Checkpoints are directories of files, one per network and optimizer:
//
//		func (net *Network) Save(dirPath string, withModels bool) (string, error)
//		func (net *Network) Load(dirPath string) ([]string, error)
//
// Save creates a new directory under dirPath, named by the time. Load restores whatever it
// finds in a checkpoint directory and skips the rest.
package timemachinet
