package timemachinet

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kimwoo11/TimeMachiNet/condition"
	"github.com/kimwoo11/TimeMachiNet/imageio"
	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// AgingFile is the name of the image written by TestImage
const AgingFile string = "menifa.png"

// where the label is drawn on the original image
const labelX, labelY int = 2, 25

// TestImage shows one face at every age group. 'image' is a 1×3×S×S tensor and 'age' and
// 'gender' are its label, which is drawn onto it.
//
// The face is encoded once and generated again with the given gender and each age group in
// turn. The labeled original and the generated faces are written as a single row to
// AgingFile in 'targetDir', whose path is returned. The networks are left in evaluation
// mode.
func (net *Network) TestImage(image *tensor.Tensor, age, gender int, targetDir string) (string, error) {
	scheme := net.config.Model.Condition

	if image == nil {
		return "", NilArgError{"image"}
	} else if len(image.Shape) != 4 {
		return "", errors.Wrapf(ErrImageSize, "Can't test image of shape %v", image.Shape)
	} else if image.Shape[0] != 1 {
		return "", errors.Errorf("Can't test image, got a batch of %d", image.Shape[0])
	}

	if _, err := scheme.Vector(age, gender); err != nil {
		return "", errors.Wrap(err, "Can't test image")
	}

	ages := make([]int, scheme.Ages)
	genders := make([]int, scheme.Ages)
	for a := range ages {
		ages[a] = a
		genders[a] = gender
	}

	conds, err := scheme.Tensor(ages, genders)
	if err != nil {
		return "", err
	}

	batch := tensor.Repeat(image, scheme.Ages)
	if err := net.checkBatch(batch, conds); err != nil {
		return "", errors.Wrap(err, "Can't test image")
	}

	net.EvalMode()
	z := net.Encoder.Forward(batch)
	generated := net.Generator.ForwardCondition(z, conds)

	original := imageio.ToImage(image, 0)
	label := fmt.Sprintf("%s, %d", condition.GenderName(gender), age)
	imageio.Annotate(original, label, labelX, labelY, imageio.LabelColor)

	// the labeled original, then one face per age group
	joined := tensor.New(append([]int{scheme.Ages + 1}, image.Shape[1:]...)...)
	imageio.Draw(joined, 0, original)
	copy(joined.Data[len(image.Data):], generated.Data)

	path := filepath.Join(targetDir, AgingFile)
	if err := imageio.SaveGrid(path, joined, scheme.Ages+1); err != nil {
		return "", err
	}

	net.logger.Info("Saved aging results", zap.String("file", path), zap.String("label", label))
	return path, nil
}
