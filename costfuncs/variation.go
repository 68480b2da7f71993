package costfuncs

import (
	"fmt"
	"math"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// TotalVariation returns the sum of absolute differences between horizontally and
// vertically adjacent pixels of an N×C×H×W batch, divided by N.
func TotalVariation(x *tensor.Tensor) *tensor.Tensor {
	if len(x.Shape) != 4 {
		panic(fmt.Sprintf("Can't calculate total variation of shape %v, must be N×C×H×W", x.Shape))
	}

	n, c, h, w := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	planes := n * c

	out := tensor.Result([]int{1}, x)
	var sum float64
	for p := 0; p < planes; p++ {
		plane := x.Data[p*h*w : (p+1)*h*w]
		for i := 0; i < h; i++ {
			for j := 0; j < w; j++ {
				v := plane[i*w+j]
				if j+1 < w {
					sum += math.Abs(v - plane[i*w+j+1])
				}
				if i+1 < h {
					sum += math.Abs(v - plane[(i+1)*w+j])
				}
			}
		}
	}
	out.Data[0] = sum / float64(n)

	out.SetBackward(func() {
		g := out.Grad[0] / float64(n)
		for p := 0; p < planes; p++ {
			plane := x.Data[p*h*w : (p+1)*h*w]
			grad := x.Grad[p*h*w : (p+1)*h*w]
			for i := 0; i < h; i++ {
				for j := 0; j < w; j++ {
					k := i*w + j
					if j+1 < w {
						s := g * sign(plane[k]-plane[k+1])
						grad[k] += s
						grad[k+1] -= s
					}
					if i+1 < h {
						s := g * sign(plane[k]-plane[k+w])
						grad[k] += s
						grad[k+w] -= s
					}
				}
			}
		}
	})

	return out
}
