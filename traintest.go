package timemachinet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kimwoo11/TimeMachiNet/config"
	"github.com/kimwoo11/TimeMachiNet/dataset"
	"github.com/kimwoo11/TimeMachiNet/imageio"
	"github.com/kimwoo11/TimeMachiNet/tracking"
)

// Files written while training
const (
	BaseFile   string = "base.png"
	LossesPlot string = "losses.png"
	LossesDB   string = "losses.db"
)

// images per row of the validation grids
const gridRow int = 8

// PlottedLosses are the series drawn in LossesPlot, in legend order
var PlottedLosses = []string{"train", "valid", "dz", "reg", "ez", "dimg"}

// TrainArgs are the arguments to Network.Train. TrainData and Root are required; the rest
// can be left empty.
type TrainArgs struct {
	TrainData *dataset.Dataset

	// ValidData is reconstructed at the end of every epoch. It can be nil.
	ValidData *dataset.Batch

	// Root is the directory that everything is written to
	Root string

	// Epochs overrides the configured number of epochs if it is greater than zero
	Epochs int

	// ShouldSave indicates whether a checkpoint should be written after the given step,
	// counted from 0 across the whole run. It defaults to Every(SaveEvery) from the
	// configuration.
	ShouldSave func(int) bool

	// Tracker records the losses. If nil, one is made that stores them in LossesDB.
	Tracker *tracking.Tracker

	// Update is called after every step and at the end of every epoch. It can be nil.
	Update func(Result)
}

// Result is what is sent back through TrainArgs.Update
type Result struct {
	Epoch     int
	Iteration int

	// the losses of the step; zero at the end of an epoch
	Losses StepLosses

	// IsEpoch is true once per epoch, after validation. Means then holds the epoch's mean
	// losses.
	IsEpoch bool
	Means   map[string]float64

	// Checkpoint is the directory written after this step, if any
	Checkpoint string
}

// Train trains the networks for the configured number of epochs, writing checkpoints,
// validation images and loss plots under args.Root:
//
//	base.png                            the validation images
//	losses.png, losses.db               losses per epoch, and every recorded value
//	epoch<N>/<timestamp>/*.dat          checkpoints
//	epoch<N>/<timestamp>/losses.png     the plot as of that checkpoint
//	epoch<N>/onesided_<N>.png           reconstructed validation images
//
// Cancelling 'ctx' stops training after the current step, returning ctx.Err().
func (net *Network) Train(ctx context.Context, args TrainArgs) error {
	t := net.config.Train

	if args.TrainData == nil {
		return NilArgError{"TrainData"}
	} else if args.TrainData.Len() == 0 {
		return ErrNoData
	} else if args.Root == "" {
		return errors.Errorf("Can't train without an output directory")
	}

	epochs := t.Epochs
	if args.Epochs > 0 {
		epochs = args.Epochs
	}

	if args.ShouldSave == nil {
		args.ShouldSave = Every(t.SaveEvery)
	}

	if args.Update == nil {
		args.Update = func(Result) {}
	}

	if err := os.MkdirAll(args.Root, 0755); err != nil {
		return errors.Wrapf(err, "Can't create output directory %q", args.Root)
	}

	tracker := args.Tracker
	if tracker == nil {
		store, err := tracking.OpenStore(filepath.Join(args.Root, LossesDB))
		if err != nil {
			return err
		}
		defer store.Close()

		net.logger.Info("Recording losses", zap.String("run", store.Run()))
		tracker = tracking.New(store, PlottedLosses...)
	}

	if args.ValidData != nil {
		if err := imageio.SaveGrid(filepath.Join(args.Root, BaseFile), args.ValidData.Images, gridRow); err != nil {
			return err
		}
	}

	var step int
	var epochDir string

	for epoch := 1; epoch <= epochs; epoch++ {
		epochDir = filepath.Join(args.Root, fmt.Sprintf("epoch%d", epoch))
		if err := os.MkdirAll(epochDir, 0755); err != nil {
			return errors.Wrapf(err, "Can't create epoch directory %q", epochDir)
		}

		it := args.TrainData.Batches(t.BatchSize, net.rng)
		for it.Next(ctx) {
			if err := ctx.Err(); err != nil {
				return err
			}

			b := it.Batch()

			net.TrainMode()
			losses, err := net.Step(b.Images, b.Conditions)
			if err != nil {
				return errors.Wrapf(err, "Failed on epoch %d", epoch)
			}

			if err := tracker.Append(losses.Map()); err != nil {
				return err
			}

			r := Result{Epoch: epoch, Iteration: net.iter, Losses: losses}

			if args.ShouldSave(step) {
				net.logger.Info("Step", zap.Int("epoch", epoch), zap.Int("iteration", net.iter),
					zap.Float64("eg", losses.EG), zap.Float64("dz", losses.Dz), zap.Float64("di", losses.Di))

				dir, err := net.checkpoint(epochDir, t.Models == config.SaveAlways, tracker)
				if err != nil {
					return err
				}
				r.Checkpoint = dir
			}

			step++
			args.Update(r)
		}

		if err := it.Err(); err != nil {
			return errors.Wrapf(err, "Failed to load data on epoch %d", epoch)
		}

		if _, err := net.checkpoint(epochDir, true, tracker); err != nil {
			return err
		}

		extra := make(map[string]float64)
		if v := args.ValidData; v != nil {
			loss, generated, err := net.Validate(v.Images, v.Conditions)
			if err != nil {
				return err
			}
			extra["valid"] = loss

			grid := filepath.Join(epochDir, fmt.Sprintf("onesided_%d.png", epoch))
			if err := imageio.SaveGrid(grid, generated, gridRow); err != nil {
				return err
			}
		}

		means, err := tracker.EndEpoch(extra)
		if err != nil {
			return err
		}

		if err := tracker.Plot(filepath.Join(args.Root, LossesPlot)); err != nil {
			return err
		}

		net.logger.Info("Finished epoch", zap.Int("epoch", epoch), zap.Stringer("losses", tracker))
		args.Update(Result{Epoch: epoch, Iteration: net.iter, IsEpoch: true, Means: means})
	}

	if t.Models == config.SaveLast {
		if _, err := net.Save(epochDir, true); err != nil {
			return err
		}
	}

	return nil
}

// checkpoint saves the networks and the current loss plot
func (net *Network) checkpoint(epochDir string, withModels bool, tracker *tracking.Tracker) (string, error) {
	dir, err := net.Save(epochDir, withModels)
	if err != nil {
		return "", err
	}

	if err := tracker.Plot(filepath.Join(dir, LossesPlot)); err != nil {
		return "", err
	}
	return dir, nil
}
