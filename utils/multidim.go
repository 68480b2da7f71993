package utils

// MultiDim maps points in a row-major N-dimensional volume to flat indexes and back. The
// last dimension changes fastest, as in every N×C×H×W tensor.
//
// The fields must not be changed after NewMultiDim.
type MultiDim struct {
	// outermost first
	Dims []int

	// Strides[i] is the distance between neighbors along dimension i; the last is 1
	Strides []int
}

// NewMultiDim creates a new MultiDim for the given dimensions. The slice of dimensions is
// copied.
func NewMultiDim(dims []int) *MultiDim {
	m := &MultiDim{
		Dims:    make([]int, len(dims)),
		Strides: make([]int, len(dims)),
	}

	copy(m.Dims, dims)

	stride := 1
	for i := len(dims) - 1; i >= 0; i-- {
		m.Strides[i] = stride
		stride *= dims[i]
	}

	return m
}

// Index returns the flat index of a point with one coordinate per dimension
func (m *MultiDim) Index(point []int) int {
	index := 0
	for i, p := range point {
		index += p * m.Strides[i]
	}

	return index
}

// Point is the inverse of Index, for indexes in bounds
func (m *MultiDim) Point(index int) []int {
	p := make([]int, len(m.Dims))
	for i := range p {
		p[i] = index / m.Strides[i]
		index %= m.Strides[i]
	}

	return p
}

// Size returns the total number of values covered by the dimensions.
func (m *MultiDim) Size() int {
	if len(m.Dims) == 0 {
		return 1
	}

	return m.Strides[0] * m.Dims[0]
}

// Increment moves 'point' to the next position in row-major order. At the end of the
// volume it wraps around to all zeros and returns false.
func (m *MultiDim) Increment(point []int) bool {
	for i := len(point) - 1; i >= 0; i-- {
		point[i]++
		if point[i] < m.Dims[i] {
			return true
		}

		point[i] = 0
	}

	return false
}

// Equal returns whether two lists of dimensions are identical
func Equal(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}
