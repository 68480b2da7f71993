package imageio

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// LabelColor is dark green, which stands out on most skin tones
var LabelColor = color.RGBA{R: 0, G: 128, B: 0, A: 255}

// Annotate draws a line of text onto an image, with the baseline of its first character at
// (x, y).
func Annotate(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
