package tensor

import (
	"github.com/pkg/errors"
)

// Backward computes the gradient of 'loss' with respect to each of the Tensors in 'wrt',
// adding it to their Grad.
//
// Only the part of the graph that connects 'loss' to 'wrt' is traversed. The gradients of
// intermediate values are reset before each call, so the same graph can be differentiated
// any number of times, for different losses and different sets of parameters. Values in the
// graph are never changed by Backward, so every call sees the activations of the first
// forward pass. Parameters are read when their closure runs; a call only passes through
// the parameters on a path from 'loss' to 'wrt'.
//
// 'loss' must hold exactly one value.
func Backward(loss *Tensor, wrt []*Tensor) error {
	if loss == nil {
		return errors.Errorf("Can't run backward, loss is nil")
	} else if len(loss.Data) != 1 {
		return errors.Errorf("Can't run backward, loss is not a scalar (shape %v)", loss.Shape)
	}

	targets := make(map[*Tensor]bool, len(wrt))
	for _, w := range wrt {
		targets[w] = true
	}

	order := topological(loss)

	// parents come before children in 'order', so needs can be settled in one pass
	for _, t := range order {
		t.active = targets[t]
		for _, p := range t.parents {
			if p.active {
				t.active = true
				break
			}
		}
	}

	defer func() {
		for _, t := range order {
			t.active = false
		}
	}()

	if !loss.active {
		// nothing requested is reachable; the gradients are all zero
		return nil
	}

	for _, t := range order {
		if !t.active {
			continue
		}

		if len(t.parents) == 0 {
			// leaves keep what they have accumulated
			if t.Grad == nil {
				t.Grad = make([]float64, len(t.Data))
			}
			continue
		}

		t.ZeroGrad()
	}

	loss.Grad[0] = 1

	for i := len(order) - 1; i >= 0; i-- {
		t := order[i]
		if t.active && t.backward != nil {
			t.backward()
		}
	}

	return nil
}

// topological returns every Tensor that 'root' depends on, including itself, ordered so
// that each Tensor comes after all of its parents.
func topological(root *Tensor) []*Tensor {
	var order []*Tensor
	visited := make(map[*Tensor]bool)

	type frame struct {
		t    *Tensor
		next int
	}

	// iterative, because graphs of deep networks can be long
	stack := []frame{{root, 0}}
	visited[root] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.t.parents) {
			p := top.t.parents[top.next]
			top.next++

			if !visited[p] {
				visited[p] = true
				stack = append(stack, frame{p, 0})
			}
			continue
		}

		order = append(order, top.t)
		stack = stack[:len(stack)-1]
	}

	return order
}
