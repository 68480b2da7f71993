package main

import (
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tm "github.com/kimwoo11/TimeMachiNet"
	"github.com/kimwoo11/TimeMachiNet/dataset"
)

var (
	dataDir  string
	outDir   string
	epochs   int
	loadFrom string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the networks on a labeled dataset",
	Long: `Trains every network on the images under --data, holding some out for
validation. Checkpoints, loss plots and validation images are written under --out,
along with the configuration that was used.`,
	Args: cobra.NoArgs,
	RunE: runTrain,
}

func init() {
	trainCmd.Flags().StringVarP(&dataDir, "data", "d", "", "dataset directory")
	trainCmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
	trainCmd.Flags().IntVarP(&epochs, "epochs", "e", 0, "number of epochs (overrides the configuration)")
	trainCmd.Flags().StringVar(&loadFrom, "load", "", "checkpoint directory to resume from")
	_ = trainCmd.MarkFlagRequired("data")
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := loadConfig()
	if err != nil {
		return err
	}
	if epochs > 0 {
		c.Train.Epochs = epochs
	}

	dev, err := tm.ResolveDevice(c.Device)
	if err != nil {
		return err
	}

	net, err := tm.New(c, dev, logger)
	if err != nil {
		return err
	}

	if loadFrom != "" {
		if _, err := net.Load(loadFrom); err != nil {
			return err
		}
	}

	ds, err := dataset.Open(dataDir, c.Model.ImageSize, c.Model.Condition)
	if err != nil {
		return err
	}

	train, valid, err := ds.Split(c.Train.ValidationSize(), rand.New(rand.NewSource(c.Seed)))
	if err != nil {
		return err
	}

	validBatch, err := valid.All(ctx)
	if err != nil {
		return errors.Wrap(err, "Failed to load validation images")
	}

	logger.Info("Loaded dataset", zap.String("dir", dataDir), zap.Int("train", train.Len()), zap.Int("valid", valid.Len()))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrapf(err, "Can't create output directory %q", outDir)
	}
	if err := c.Write(filepath.Join(outDir, "config.yaml")); err != nil {
		return err
	}

	return net.Train(ctx, tm.TrainArgs{
		TrainData: train,
		ValidData: validBatch,
		Root:      outDir,
		Update: func(r tm.Result) {
			if r.IsEpoch {
				return
			}
			logger.Debug("Step",
				zap.Int("epoch", r.Epoch),
				zap.Int("iteration", r.Iteration),
				zap.Float64("eg", r.Losses.EG),
				zap.Float64("reg", r.Losses.Reg),
				zap.Float64("ez", r.Losses.EZ),
				zap.Float64("dg", r.Losses.DG),
				zap.Float64("dz", r.Losses.Dz),
				zap.Float64("di", r.Losses.Di),
				zap.Float64("uni_diff", r.Losses.UniDiff),
			)
		},
	})
}
