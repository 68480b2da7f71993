package timemachinet

import (
	"math/rand"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kimwoo11/TimeMachiNet/config"
	"github.com/kimwoo11/TimeMachiNet/costfuncs"
	"github.com/kimwoo11/TimeMachiNet/logging"
	"github.com/kimwoo11/TimeMachiNet/models"
	"github.com/kimwoo11/TimeMachiNet/optimizers"
	"github.com/kimwoo11/TimeMachiNet/penalties"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Network is the full face-aging model: the four networks and the three optimizers that
// train them.
//
// EGOpt trains the Encoder and Generator together, DzOpt the latent discriminator and DiOpt
// the image discriminator.
type Network struct {
	Encoder    *models.Encoder
	Generator  *models.Generator
	LatentDisc *models.LatentDiscriminator
	ImageDisc  *models.ImageDiscriminator

	EGOpt optimizers.Optimizer
	DzOpt optimizers.Optimizer
	DiOpt optimizers.Optimizer

	config config.Config
	device Device
	rng    *rand.Rand
	logger *zap.Logger

	recon costfuncs.CostFunction
	bce   costfuncs.CostFunction

	// number of completed steps
	iter int
}

// New builds every network and optimizer described by 'c'. All weights, and every random
// draw made while training, come from c.Seed, so two Networks made from the same
// configuration behave identically. 'logger' may be nil.
func New(c config.Config, dev Device, logger *zap.Logger) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	net := &Network{
		config: c,
		device: dev,
		rng:    rand.New(rand.NewSource(c.Seed)),
		logger: logging.OrNop(logger),
		bce:    costfuncs.BCEWithLogits(),
	}

	var err error
	if net.recon, err = costfuncs.ByName(c.Train.Reconstruction); err != nil {
		return nil, err
	}

	if net.Encoder, err = models.NewEncoder(c.Model, net.rng); err != nil {
		return nil, errors.Wrap(err, "Failed to build encoder")
	}
	if net.LatentDisc, err = models.NewLatentDiscriminator(c.Model, net.rng); err != nil {
		return nil, errors.Wrap(err, "Failed to build latent discriminator")
	}
	if net.ImageDisc, err = models.NewImageDiscriminator(c.Model, net.rng); err != nil {
		return nil, errors.Wrap(err, "Failed to build image discriminator")
	}
	if net.Generator, err = models.NewGenerator(c.Model, net.rng); err != nil {
		return nil, errors.Wrap(err, "Failed to build generator")
	}

	eg := append(append([]*tensor.Tensor{}, net.Encoder.Params()...), net.Generator.Params()...)
	if net.EGOpt, err = net.optimizer(eg); err != nil {
		return nil, errors.Wrap(err, "Failed to build encoder/generator optimizer")
	}
	if net.DzOpt, err = net.optimizer(net.LatentDisc.Params()); err != nil {
		return nil, errors.Wrap(err, "Failed to build latent discriminator optimizer")
	}
	if net.DiOpt, err = net.optimizer(net.ImageDisc.Params()); err != nil {
		return nil, errors.Wrap(err, "Failed to build image discriminator optimizer")
	}

	fields := []zap.Field{zap.Stringer("device", dev)}
	for _, m := range net.modules() {
		fields = append(fields, zap.Int(m.Name()+"_params", models.CountParams(m)))
	}
	net.logger.Info("Built networks", fields...)

	return net, nil
}

// optimizer makes one of the three optimizers; they all share the same settings
func (net *Network) optimizer(params []*tensor.Tensor) (optimizers.Optimizer, error) {
	t := net.config.Train

	lr, err := t.LearningRate.Build()
	if err != nil {
		return nil, err
	}

	pen, err := penalties.ByName(t.Penalty, t.WeightDecay, 0)
	if err != nil {
		return nil, err
	}

	return optimizers.ByName(params, optimizers.Args{
		Type:         t.Optimizer,
		LearningRate: lr,
		Betas:        [2]float64{t.Betas[0], t.Betas[1]},
		Momentum:     t.Momentum,
		Penalty:      pen,
	})
}

// modules returns the four networks in checkpoint order
func (net *Network) modules() []models.Module {
	return []models.Module{net.Encoder, net.Generator, net.LatentDisc, net.ImageDisc}
}

// optimizerFiles returns the three optimizers, with the names of their checkpoint files
func (net *Network) optimizerFiles() ([]string, []optimizers.Optimizer) {
	return []string{"eg_optimizer", "dz_optimizer", "di_optimizer"},
		[]optimizers.Optimizer{net.EGOpt, net.DzOpt, net.DiOpt}
}

// TrainMode puts every network in training mode, where batch normalization uses the
// statistics of each batch.
func (net *Network) TrainMode() {
	net.setTraining(true)
}

// EvalMode puts every network in evaluation mode, where batch normalization uses its
// running statistics.
func (net *Network) EvalMode() {
	net.setTraining(false)
}

func (net *Network) setTraining(training bool) {
	for _, m := range net.modules() {
		m.SetTraining(training)
	}
}

// Config returns the configuration the Network was made from
func (net *Network) Config() config.Config {
	return net.config
}

// Device returns where the Network runs
func (net *Network) Device() Device {
	return net.device
}

// Iterations returns the number of training steps taken so far
func (net *Network) Iterations() int {
	return net.iter
}

// checkBatch returns an error if 'images' and 'conds' are not a matching batch of N×3×S×S
// images and N×Width conditions.
func (net *Network) checkBatch(images, conds *tensor.Tensor) error {
	if images == nil {
		return NilArgError{"images"}
	} else if conds == nil {
		return NilArgError{"conditions"}
	}

	size := net.config.Model.ImageSize
	if s := images.Shape; len(s) != 4 || s[1] != 3 || s[2] != size || s[3] != size {
		return errors.Wrapf(ErrImageSize, "Got shape %v, expected N×3×%d×%d", images.Shape, size, size)
	}

	width := net.config.Model.Condition.Width()
	if s := conds.Shape; len(s) != 2 || s[0] != images.Shape[0] || s[1] != width {
		return errors.Wrapf(ErrConditionSize, "Got shape %v for %d images, expected width %d", conds.Shape, images.Shape[0], width)
	}

	return nil
}
