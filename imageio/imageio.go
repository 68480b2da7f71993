// Package imageio converts between image files and batches of image tensors.
//
// Tensors hold N×3×H×W values in [-1, 1]; pixels are mapped linearly from [0, 255].
package imageio

import (
	"image"
	"image/color"
	_ "image/jpeg" // decoding
	"image/png"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// Load decodes a JPEG or PNG file and scales it to size×size, returning a 1×3×size×size
// tensor.
func Load(path string, size int) (*tensor.Tensor, error) {
	img, err := Decode(path)
	if err != nil {
		return nil, err
	}

	t := tensor.New(1, 3, size, size)
	Fill(t.Data, img, size)
	return t, nil
}

// Decode reads an image file
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open image %q", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't decode image %q", path)
	}
	return img, nil
}

// Resize scales an image to size×size with bilinear interpolation. The aspect ratio is not
// kept.
func Resize(img image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// Fill writes an image, scaled to size×size, into 'dst' as 3×size×size values in [-1, 1].
func Fill(dst []float64, img image.Image, size int) {
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds() != image.Rect(0, 0, size, size) {
		rgba = Resize(img, size)
	}

	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := rgba.RGBAAt(x, y)
			i := y*size + x
			dst[i] = twoSided(c.R)
			dst[plane+i] = twoSided(c.G)
			dst[2*plane+i] = twoSided(c.B)
		}
	}
}

func twoSided(v uint8) float64 {
	return float64(v)/127.5 - 1
}

func oneSided(v float64) uint8 {
	p := (v + 1) * 127.5
	switch {
	case p <= 0:
		return 0
	case p >= 255:
		return 255
	}
	return uint8(p + 0.5)
}

// ToImage returns the n'th image of an N×3×H×W batch. Values outside [-1, 1] are clamped.
func ToImage(batch *tensor.Tensor, n int) *image.RGBA {
	h, w := batch.Shape[2], batch.Shape[3]
	plane := h * w
	data := batch.Data[n*3*plane : (n+1)*3*plane]

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			img.SetRGBA(x, y, color.RGBA{
				R: oneSided(data[i]),
				G: oneSided(data[plane+i]),
				B: oneSided(data[2*plane+i]),
				A: 255,
			})
		}
	}
	return img
}

// Draw writes an image into the n'th position of an N×3×H×W batch
func Draw(batch *tensor.Tensor, n int, img image.Image) {
	size := batch.Shape[2]
	per := 3 * size * size
	Fill(batch.Data[n*per:(n+1)*per], img, size)
}

// SavePNG writes an image to 'path', creating its directory if needed
func SavePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "Can't create directory for %q", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Can't create image file %q", path)
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "Can't encode image %q", path)
	}
	return errors.Wrapf(f.Close(), "Can't close image file %q", path)
}
