package operators

import (
	"github.com/kimwoo11/TimeMachiNet/utils"
)

// patches describes how an image volume is cut into (possibly overlapping) k×k windows
// with stride s and no padding. For a convolution the volume is the input and the grid is
// the output; for a transposed convolution it is the other way around.
//
// The column matrix has one row per (channel, kh, kw) and one column per (sample, grid
// position), so that a whole batch is a single matrix product.
type patches struct {
	n       int // samples
	c, h, w int // volume
	k, s    int // kernel, stride
	gh, gw  int // grid
}

func (p patches) rows() int {
	return p.c * p.k * p.k
}

func (p patches) cols() int {
	return p.n * p.gh * p.gw
}

// im2col copies the windows of 'vol' (n×c×h×w) into 'cols' (rows × cols).
func (p patches) im2col(vol, cols []float64) {
	P := p.cols()
	grid := p.gh * p.gw
	per := p.c * p.h * p.w

	utils.ForEach(p.n, func(n int) {
		src := vol[n*per : (n+1)*per]
		for c := 0; c < p.c; c++ {
			for kh := 0; kh < p.k; kh++ {
				for kw := 0; kw < p.k; kw++ {
					row := cols[((c*p.k+kh)*p.k+kw)*P+n*grid:]
					for i := 0; i < p.gh; i++ {
						y := i*p.s + kh
						line := src[(c*p.h+y)*p.w:]
						for j := 0; j < p.gw; j++ {
							row[i*p.gw+j] = line[j*p.s+kw]
						}
					}
				}
			}
		}
	})
}

// col2im adds the windows in 'cols' back into 'vol', summing where windows overlap.
func (p patches) col2im(cols, vol []float64) {
	P := p.cols()
	grid := p.gh * p.gw
	per := p.c * p.h * p.w

	utils.ForEach(p.n, func(n int) {
		dst := vol[n*per : (n+1)*per]
		for c := 0; c < p.c; c++ {
			for kh := 0; kh < p.k; kh++ {
				for kw := 0; kw < p.k; kw++ {
					row := cols[((c*p.k+kh)*p.k+kw)*P+n*grid:]
					for i := 0; i < p.gh; i++ {
						y := i*p.s + kh
						line := dst[(c*p.h+y)*p.w:]
						for j := 0; j < p.gw; j++ {
							line[j*p.s+kw] += row[i*p.gw+j]
						}
					}
				}
			}
		}
	})
}

// toChannelMajor rearranges n×c×g (sample-major) into c×(n·g), the layout of a column
// matrix's output.
func toChannelMajor(src, dst []float64, n, c, g int) {
	utils.ForEach(n, func(s int) {
		for ch := 0; ch < c; ch++ {
			copy(dst[ch*n*g+s*g:ch*n*g+(s+1)*g], src[(s*c+ch)*g:(s*c+ch+1)*g])
		}
	})
}

// fromChannelMajor is the inverse of toChannelMajor, adding into dst.
func fromChannelMajor(src, dst []float64, n, c, g int) {
	utils.ForEach(n, func(s int) {
		for ch := 0; ch < c; ch++ {
			d := dst[(s*c+ch)*g : (s*c+ch+1)*g]
			for j, v := range src[ch*n*g+s*g : ch*n*g+(s+1)*g] {
				d[j] += v
			}
		}
	})
}
