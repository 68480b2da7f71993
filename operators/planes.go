package operators

import (
	"fmt"

	"github.com/kimwoo11/TimeMachiNet/tensor"
)

// BroadcastPlanes turns an N×K condition into N×K×H×W, where every value becomes a constant
// H×W plane. The result can be concatenated to a feature volume of the same spatial size.
func BroadcastPlanes(cond *tensor.Tensor, h, w int) *tensor.Tensor {
	if len(cond.Shape) != 2 {
		panic(fmt.Sprintf("Can't broadcast condition of shape %v, must be 2-dimensional", cond.Shape))
	}

	n, k := cond.Shape[0], cond.Shape[1]
	g := h * w

	out := tensor.Result([]int{n, k, h, w}, cond)
	for i, v := range cond.Data {
		plane := out.Data[i*g : (i+1)*g]
		for j := range plane {
			plane[j] = v
		}
	}

	out.SetBackward(func() {
		for i := 0; i < n*k; i++ {
			var sum float64
			for _, d := range out.Grad[i*g : (i+1)*g] {
				sum += d
			}
			cond.Grad[i] += sum
		}
	})

	return out
}
