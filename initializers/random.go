package initializers

import "math/rand"

type random struct {
	RNG
}

// Random returns an Initializer that fills weights straight from 'g', whatever the size of
// the layer.
func Random(g RNG) random {
	return random{g}
}

func (r random) Set(ws []float64, fanIn, fanOut int, rng *rand.Rand) {
	for i := range ws {
		ws[i] = r.Gen(rng)
	}
}
