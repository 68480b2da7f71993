package timemachinet

import (
	"github.com/pkg/errors"

	"github.com/kimwoo11/TimeMachiNet/costfuncs"
	"github.com/kimwoo11/TimeMachiNet/optimizers"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// StepLosses are the values of every loss in one training step. Weighted terms are given
// after their weight is applied.
type StepLosses struct {
	// reconstruction of the input images
	EG float64
	// total variation of the generated images
	Reg float64
	// encoder fooling the latent discriminator
	EZ float64
	// generator fooling the image discriminator
	DG float64
	// latent discriminator
	Dz float64
	// image discriminator
	Di float64

	// how much less uniform the encodings are than samples of the prior; not trained on
	UniDiff float64
}

// Total is the loss that the Encoder and Generator are trained on
func (l StepLosses) Total() float64 {
	return l.EG + l.Reg + l.EZ + l.DG
}

// Map gives the losses by the names they are tracked under
func (l StepLosses) Map() map[string]float64 {
	return map[string]float64{
		"train":    l.EG,
		"reg":      l.Reg,
		"ez":       l.EZ,
		"dg":       l.DG,
		"dz":       l.Dz,
		"dimg":     l.Di,
		"uni_diff": l.UniDiff,
	}
}

// graph holds the losses of one forward pass. Each of the three is differentiated with
// respect to its own optimizer's parameters.
type graph struct {
	z, generated *tensor.Tensor

	// Encoder and Generator
	total, eg, reg, ez, dg *tensor.Tensor
	// latent discriminator
	dz *tensor.Tensor
	// image discriminator
	di *tensor.Tensor

	uniDiff float64
}

func (g *graph) losses() StepLosses {
	return StepLosses{
		EG:      g.eg.Item(),
		Reg:     g.reg.Item(),
		EZ:      g.ez.Item(),
		DG:      g.dg.Item(),
		Dz:      g.dz.Item(),
		Di:      g.di.Item(),
		UniDiff: g.uniDiff,
	}
}

// prior draws a sample shaped like 'z' from the uniform distribution over [-1, 1]
func (net *Network) prior(z *tensor.Tensor) *tensor.Tensor {
	p := tensor.New(z.Shape...)
	for i := range p.Data {
		p.Data[i] = 2*net.rng.Float64() - 1
	}
	return p
}

// forward runs every network once and builds all of the losses of a step.
func (net *Network) forward(images, conds *tensor.Tensor) *graph {
	w := net.config.Train.Weights
	g := new(graph)

	g.z = net.Encoder.Forward(images)
	g.generated = net.Generator.ForwardCondition(g.z, conds)

	g.eg = net.recon.Cost(g.generated, images)

	// the total variation is never negative, so its distance from 0 is itself
	tv := costfuncs.TotalVariation(g.generated)
	g.reg = tensor.Scale(costfuncs.L1().Cost(tv, tensor.Scalar(0)), w.Reg)

	prior := net.prior(g.z)
	dzPrior := net.LatentDisc.Forward(prior)
	dzZ := net.LatentDisc.Forward(g.z)

	g.dz = tensor.Add(
		net.bce.Cost(dzPrior, costfuncs.Label(dzPrior, 1)),
		net.bce.Cost(dzZ, costfuncs.Label(dzZ, 0)),
	)
	g.ez = tensor.Scale(net.bce.Cost(dzZ, costfuncs.Label(dzZ, 1)), w.EZ)

	diReal := net.ImageDisc.Forward(images, conds)
	diFake := net.ImageDisc.Forward(g.generated, conds)

	g.di = tensor.Scale(tensor.Add(
		net.bce.Cost(diReal, costfuncs.Label(diReal, 1)),
		net.bce.Cost(diFake, costfuncs.Label(diFake, 0)),
	), w.DI)
	g.dg = tensor.Scale(net.bce.Cost(diFake, costfuncs.Label(diFake, 1)), w.DG)

	g.total = tensor.Add(g.eg, g.reg, g.ez, g.dg)
	g.uniDiff = costfuncs.Uniformity(g.z.Data) - costfuncs.Uniformity(prior.Data)

	return g
}

// Step takes one training step on a batch of N×3×S×S images and their N×Width conditions.
//
// The networks are run once. Then, in order: the Encoder and Generator are updated on the
// total of their losses, the latent discriminator on its loss, and the image discriminator
// on its loss. Every gradient is taken from that single forward pass, so the later updates
// see the activations from before the Encoder and Generator moved.
//
// Step does not change whether the networks are in training mode.
func (net *Network) Step(images, conds *tensor.Tensor) (StepLosses, error) {
	if err := net.checkBatch(images, conds); err != nil {
		return StepLosses{}, errors.Wrap(err, "Can't take training step")
	}

	g := net.forward(images, conds)

	updates := []struct {
		name string
		loss *tensor.Tensor
		opt  optimizers.Optimizer
	}{
		{"encoder/generator", g.total, net.EGOpt},
		{"latent discriminator", g.dz, net.DzOpt},
		{"image discriminator", g.di, net.DiOpt},
	}

	for _, u := range updates {
		u.opt.ZeroGrad()
		if err := tensor.Backward(u.loss, u.opt.Params()); err != nil {
			return StepLosses{}, errors.Wrapf(err, "Failed to backpropagate %s loss on step %d", u.name, net.iter)
		}
		u.opt.Step()
	}

	net.iter++
	return g.losses(), nil
}

// Validate reconstructs a batch of images in evaluation mode, returning the reconstruction
// loss and the reconstructed images. The networks are left in evaluation mode.
func (net *Network) Validate(images, conds *tensor.Tensor) (float64, *tensor.Tensor, error) {
	if err := net.checkBatch(images, conds); err != nil {
		return 0, nil, errors.Wrap(err, "Can't validate")
	}

	net.EvalMode()

	z := net.Encoder.Forward(images)
	generated := net.Generator.ForwardCondition(z, conds)
	loss := net.recon.Cost(generated, images)

	return loss.Item(), generated.Detach(), nil
}
