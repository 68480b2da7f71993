package hyperparams

type step struct {
	Iter int
	Val  float64
}

// Stepper is a HyperParameter that changes value at given iterations
type Stepper struct {
	steps []step
}

// Step returns a HyperParameter with value 'base' until changes are added.
func Step(base float64) *Stepper {
	return &Stepper{steps: []step{{0, base}}}
}

// Add adds a step to the HyperParameter. Steps must be added in order of iteration.
func (s *Stepper) Add(iter int, value float64) *Stepper {
	s.steps = append(s.steps, step{iter, value})
	return s
}

func (s *Stepper) TypeString() string {
	return "step"
}

func (s *Stepper) Value(iter int) float64 {
	sl := s.steps
	for i := 1; i < len(sl); i++ {
		if sl[i].Iter > iter {
			return sl[i-1].Val
		}
	}

	return sl[len(sl)-1].Val
}
