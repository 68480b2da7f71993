// Command timemachinet trains the face-aging networks and uses them to age single faces.
//
// A dataset is a directory of folders named "<age group>.<gender>", each holding the images
// of that label:
//
//	timemachinet train --data faces --out runs/first --config run.yaml
//	timemachinet test --load runs/first/epoch10/20190412093000 --image me.jpg --age 2 --gender 1
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kimwoo11/TimeMachiNet/config"
	"github.com/kimwoo11/TimeMachiNet/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "timemachinet",
	Short: "Age faces with a conditional adversarial autoencoder",
	Long: `timemachinet trains an encoder and generator, with a latent and an image
discriminator, to reconstruct faces conditioned on age group and gender. A trained
model draws any face at every age group.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file (defaults are used if empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every step")

	rootCmd.AddCommand(trainCmd, testCmd)
}

// loadConfig reads the configuration and builds the logger it describes
func loadConfig() (config.Config, error) {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			return c, err
		}
	}

	if verbose {
		c.Logging.Level = "debug"
	}

	var err error
	if logger, err = logging.New(c.Logging.Level, c.Logging.JSON); err != nil {
		return c, err
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
