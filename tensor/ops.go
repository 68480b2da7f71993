package tensor

import (
	"fmt"
)

// Add returns the elementwise sum of Tensors that all have the same shape.
func Add(ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("Can't add zero tensors")
	}

	for i, t := range ts[1:] {
		if !SameShape(ts[0], t) {
			panic(fmt.Sprintf("Can't add tensors, shape of #%d (%v) != shape of #0 (%v)", i+1, t.Shape, ts[0].Shape))
		}
	}

	out := Result(ts[0].Shape, ts...)
	for _, t := range ts {
		for i, v := range t.Data {
			out.Data[i] += v
		}
	}

	out.SetBackward(func() {
		for _, t := range ts {
			if !t.Active() {
				continue
			}

			for i, g := range out.Grad {
				t.Grad[i] += g
			}
		}
	})

	return out
}

// Scale returns the Tensor multiplied by a constant.
func Scale(t *Tensor, c float64) *Tensor {
	out := Result(t.Shape, t)
	for i, v := range t.Data {
		out.Data[i] = c * v
	}

	out.SetBackward(func() {
		for i, g := range out.Grad {
			t.Grad[i] += c * g
		}
	})

	return out
}

// Reshape returns a Tensor with the same values and a different shape. The values are
// shared with 't'. One dimension may be given as -1 to be inferred.
func Reshape(t *Tensor, shape ...int) *Tensor {
	shape = copyShape(shape)

	infer := -1
	known := 1
	for i, d := range shape {
		if d == -1 {
			if infer >= 0 {
				panic(fmt.Sprintf("Can't reshape to %v, more than one dimension is -1", shape))
			}
			infer = i
			continue
		}
		known *= d
	}

	if infer >= 0 {
		if known == 0 || len(t.Data)%known != 0 {
			panic(fmt.Sprintf("Can't reshape %v to %v", t.Shape, shape))
		}
		shape[infer] = len(t.Data) / known
	}

	if volume(shape) != len(t.Data) {
		panic(fmt.Sprintf("Can't reshape %v to %v, sizes differ", t.Shape, shape))
	}

	out := &Tensor{
		Shape:   shape,
		Data:    t.Data,
		parents: []*Tensor{t},
	}

	out.SetBackward(func() {
		for i, g := range out.Grad {
			t.Grad[i] += g
		}
	})

	return out
}

// Flatten keeps the first dimension and collapses the rest.
func Flatten(t *Tensor) *Tensor {
	return Reshape(t, t.Shape[0], -1)
}

// Concat joins Tensors along dimension 1. All dimensions other than 1 must match.
func Concat(ts ...*Tensor) *Tensor {
	if len(ts) == 0 {
		panic("Can't concatenate zero tensors")
	}

	first := ts[0]
	if len(first.Shape) < 2 {
		panic(fmt.Sprintf("Can't concatenate tensors with shape %v along dimension 1", first.Shape))
	}

	n := first.Shape[0]
	rest := volume(first.Shape[2:])

	channels := 0
	for i, t := range ts {
		if len(t.Shape) != len(first.Shape) || t.Shape[0] != n || volume(t.Shape[2:]) != rest {
			panic(fmt.Sprintf("Can't concatenate tensors, shape of #%d (%v) does not fit %v", i, t.Shape, first.Shape))
		}
		channels += t.Shape[1]
	}

	shape := copyShape(first.Shape)
	shape[1] = channels

	out := Result(shape, ts...)
	outPer := channels * rest

	// offset of each input within one sample of the output
	offsets := make([]int, len(ts))
	off := 0
	for i, t := range ts {
		offsets[i] = off
		off += t.Shape[1] * rest
	}

	for i, t := range ts {
		per := t.Shape[1] * rest
		for s := 0; s < n; s++ {
			copy(out.Data[s*outPer+offsets[i]:], t.Data[s*per:(s+1)*per])
		}
	}

	out.SetBackward(func() {
		for i, t := range ts {
			if !t.Active() {
				continue
			}

			per := t.Shape[1] * rest
			for s := 0; s < n; s++ {
				src := out.Grad[s*outPer+offsets[i] : s*outPer+offsets[i]+per]
				dst := t.Grad[s*per : (s+1)*per]
				for j, g := range src {
					dst[j] += g
				}
			}
		}
	})

	return out
}

// Repeat stacks 'times' copies of a Tensor whose first dimension is 1.
func Repeat(t *Tensor, times int) *Tensor {
	if t.Shape[0] != 1 {
		panic(fmt.Sprintf("Can't repeat tensor with shape %v, first dimension must be 1", t.Shape))
	}

	shape := copyShape(t.Shape)
	shape[0] = times

	out := Result(shape, t)
	per := len(t.Data)
	for s := 0; s < times; s++ {
		copy(out.Data[s*per:], t.Data)
	}

	out.SetBackward(func() {
		for s := 0; s < times; s++ {
			for j, g := range out.Grad[s*per : (s+1)*per] {
				t.Grad[j] += g
			}
		}
	})

	return out
}
