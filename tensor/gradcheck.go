package tensor

// NumericGradient estimates the gradient of the scalar produced by 'f' with respect to
// every value of 'x', by central differences. 'f' must rebuild its graph from x.Data on
// every call.
//
// It is slow, and meant for checking the backward closures of operations.
func NumericGradient(f func() *Tensor, x *Tensor, eps float64) []float64 {
	grad := make([]float64, len(x.Data))
	for i := range x.Data {
		orig := x.Data[i]

		x.Data[i] = orig + eps
		plus := f().Item()

		x.Data[i] = orig - eps
		minus := f().Item()

		x.Data[i] = orig
		grad[i] = (plus - minus) / (2 * eps)
	}

	return grad
}

// AnalyticGradient runs f once and returns the gradient of its result with respect to x,
// computed by Backward. x's gradient is zeroed first.
func AnalyticGradient(f func() *Tensor, x *Tensor) ([]float64, error) {
	if x.Grad == nil {
		x.Grad = make([]float64, len(x.Data))
	}
	x.ZeroGrad()

	if err := Backward(f(), []*Tensor{x}); err != nil {
		return nil, err
	}

	g := make([]float64, len(x.Grad))
	copy(g, x.Grad)
	return g, nil
}
