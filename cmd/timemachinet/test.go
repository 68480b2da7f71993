package main

import (
	"github.com/spf13/cobra"

	tm "github.com/kimwoo11/TimeMachiNet"
	"github.com/kimwoo11/TimeMachiNet/imageio"
)

var (
	checkpoint string
	imagePath  string
	age        int
	gender     int
	targetDir  string
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Draw one face at every age group",
	Long: `Loads the networks from a checkpoint (--load), encodes the face in --image and
draws it again at every age group with the given gender. The result is written to
menifa.png under --out.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	testCmd.Flags().StringVar(&checkpoint, "load", "", "checkpoint directory")
	testCmd.Flags().StringVarP(&imagePath, "image", "i", "", "image of a face")
	testCmd.Flags().IntVar(&age, "age", 0, "age group of the face")
	testCmd.Flags().IntVar(&gender, "gender", 0, "gender of the face (0 male, 1 female)")
	testCmd.Flags().StringVarP(&targetDir, "out", "o", ".", "output directory")
	_ = testCmd.MarkFlagRequired("load")
	_ = testCmd.MarkFlagRequired("image")
}

func runTest(cmd *cobra.Command, args []string) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}

	dev, err := tm.ResolveDevice(c.Device)
	if err != nil {
		return err
	}

	net, err := tm.New(c, dev, logger)
	if err != nil {
		return err
	}

	if _, err := net.Load(checkpoint); err != nil {
		return err
	}

	img, err := imageio.Load(imagePath, c.Model.ImageSize)
	if err != nil {
		return err
	}

	path, err := net.TestImage(img, age, gender, targetDir)
	if err != nil {
		return err
	}

	cmd.Println(path)
	return nil
}
