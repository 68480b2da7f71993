package imageio

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// GridPadding is the number of pixels between (and around) the tiles of a grid
const GridPadding int = 2

// Grid lays out every image of an N×3×H×W batch in rows of 'nrow' tiles, separated by
// GridPadding black pixels. Fewer than 'nrow' images give a single shorter row.
func Grid(batch *tensor.Tensor, nrow int) *image.RGBA {
	n, h, w := batch.Shape[0], batch.Shape[2], batch.Shape[3]
	if nrow < 1 {
		nrow = 1
	}

	cols := nrow
	if n < cols {
		cols = n
	}
	rows := (n + cols - 1) / cols

	pad := GridPadding
	grid := image.NewRGBA(image.Rect(0, 0, cols*(w+pad)+pad, rows*(h+pad)+pad))
	draw.Draw(grid, grid.Bounds(), image.Black, image.Point{}, draw.Src)

	for i := 0; i < n; i++ {
		r, c := i/cols, i%cols
		at := image.Pt(pad+c*(w+pad), pad+r*(h+pad))
		tile := ToImage(batch, i)
		draw.Draw(grid, tile.Bounds().Add(at), tile, image.Point{}, draw.Src)
	}

	return grid
}

// SaveGrid writes Grid(batch, nrow) to a PNG file
func SaveGrid(path string, batch *tensor.Tensor, nrow int) error {
	return SavePNG(path, Grid(batch, nrow))
}
