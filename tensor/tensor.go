// Package tensor provides the dense values that flow between the networks, along with the
// reverse-mode differentiation used to train them.
//
// Every operation that produces a Tensor records its inputs and a closure that moves the
// output's gradient back to those inputs. Nothing is computed backwards until Backward is
// called on a scalar loss, and only towards the Tensors that Backward is asked about.
//
// All data is float64, stored row-major. Images are N×C×H×W.
package tensor

import (
	"fmt"

	"github.com/kimwoo11/TimeMachiNet/utils"
)

// Tensor is an n-dimensional array of values that remembers how it was made.
type Tensor struct {
	// Name is only set for parameters and buffers. It is the key used when saving.
	Name string

	Shape []int
	Data  []float64

	// Grad has the same layout as Data. For parameters it accumulates across calls to
	// Backward until ZeroGrad is called. For intermediate values it is reset on every
	// call to Backward.
	Grad []float64

	// whether or not the Tensor is a trainable leaf
	param bool

	parents  []*Tensor
	backward func()

	// set by Backward for the Tensors that lie on a path to a requested parameter
	active bool
}

// New returns a zero-valued Tensor with the given shape.
func New(shape ...int) *Tensor {
	return &Tensor{
		Shape: copyShape(shape),
		Data:  make([]float64, volume(shape)),
	}
}

// FromData wraps the given values in a Tensor. The slice is not copied. FromData panics if
// the number of values does not match the shape.
func FromData(data []float64, shape ...int) *Tensor {
	if len(data) != volume(shape) {
		panic(fmt.Sprintf("Can't make tensor, %d values do not fit shape %v", len(data), shape))
	}

	return &Tensor{
		Shape: copyShape(shape),
		Data:  data,
	}
}

// Scalar returns a Tensor holding a single value.
func Scalar(v float64) *Tensor {
	return FromData([]float64{v}, 1)
}

// NewParam returns a named, trainable Tensor. Its gradient is allocated immediately.
func NewParam(name string, shape ...int) *Tensor {
	t := New(shape...)
	t.Name = name
	t.param = true
	t.Grad = make([]float64, len(t.Data))
	return t
}

// NewBuffer returns a named Tensor that is saved alongside parameters but never trained,
// such as the running statistics of batch normalization.
func NewBuffer(name string, shape ...int) *Tensor {
	t := New(shape...)
	t.Name = name
	return t
}

// Result makes the output of an operation on the given parents. The backward closure is
// set afterwards with SetBackward, because it usually needs a reference to the output
// itself.
func Result(shape []int, parents ...*Tensor) *Tensor {
	t := New(shape...)
	t.parents = parents
	return t
}

// SetBackward sets the function that moves t.Grad to the gradients of t's parents. It is
// only called when t is Active, and should only write to the Grad of parents that are
// Active themselves.
func (t *Tensor) SetBackward(f func()) {
	t.backward = f
}

// Size returns the number of values in the Tensor.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Dim returns the size of the given dimension.
func (t *Tensor) Dim(d int) int {
	return t.Shape[d]
}

// IsParam returns whether or not the Tensor is a trainable parameter.
func (t *Tensor) IsParam() bool {
	return t.param
}

// Active returns whether or not the Tensor's gradient is wanted by the Backward call that
// is currently running. Operations check this before computing the gradient of each
// input, so that work is only done for the parameters that are being trained.
func (t *Tensor) Active() bool {
	return t.active
}

// Item returns the single value of a one-element Tensor. It panics otherwise.
func (t *Tensor) Item() float64 {
	if len(t.Data) != 1 {
		panic(fmt.Sprintf("Can't get item of tensor with shape %v", t.Shape))
	}

	return t.Data[0]
}

// At returns the value at the given point.
func (t *Tensor) At(point ...int) float64 {
	return t.Data[utils.NewMultiDim(t.Shape).Index(point)]
}

// ZeroGrad sets every value of the gradient to zero, allocating it if necessary.
func (t *Tensor) ZeroGrad() {
	if t.Grad == nil {
		t.Grad = make([]float64, len(t.Data))
		return
	}

	for i := range t.Grad {
		t.Grad[i] = 0
	}
}

// Detach returns a copy of the Tensor's values with no history.
func (t *Tensor) Detach() *Tensor {
	d := make([]float64, len(t.Data))
	copy(d, t.Data)
	return FromData(d, t.Shape...)
}

// Sample returns a detached copy of the n'th entry of the outermost dimension, keeping a
// leading dimension of 1.
func (t *Tensor) Sample(n int) *Tensor {
	per := len(t.Data) / t.Shape[0]
	d := make([]float64, per)
	copy(d, t.Data[n*per:(n+1)*per])

	shape := copyShape(t.Shape)
	shape[0] = 1
	return FromData(d, shape...)
}

// String gives the name (if any) and shape of the Tensor, not its values.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil>"
	}

	if t.Name != "" {
		return fmt.Sprintf("%q %v", t.Name, t.Shape)
	}

	return fmt.Sprintf("<tensor %v>", t.Shape)
}

func volume(shape []int) int {
	v := 1
	for _, d := range shape {
		v *= d
	}

	return v
}

func copyShape(shape []int) []int {
	s := make([]int, len(shape))
	copy(s, shape)
	return s
}

// SameShape returns whether or not two Tensors have identical shapes.
func SameShape(a, b *Tensor) bool {
	return utils.Equal(a.Shape, b.Shape)
}
