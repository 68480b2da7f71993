package initializers

import "math/rand"

// RNG draws single values from a distribution, using the source it is given
type RNG interface {
	Gen(*rand.Rand) float64
}

type normal struct {
	µ, σ float64
}

// Normal returns a normal distribution with mean "normal-mean" and standard deviation
// "normal-sd" (see SetDefault). Both can be changed with Mean and SD.
func Normal() *normal {
	return &normal{defaultValue["normal-mean"], defaultValue["normal-sd"]}
}

// SD sets the standard deviation
func (n *normal) SD(sd float64) *normal {
	n.σ = sd
	return n
}

// Mean sets the center
func (n *normal) Mean(mean float64) *normal {
	n.µ = mean
	return n
}

func (n *normal) Gen(r *rand.Rand) float64 {
	return r.NormFloat64()*n.σ + n.µ
}

// draws beyond this many standard deviations are rejected
const defaultTrunc float64 = 2.0

type truncNormal struct {
	*normal
	trunc float64
}

// TruncNormal is Normal with every value more than two standard deviations from the mean
// redrawn. Mean and SD are set as for Normal; the cutoff is set by Trunc.
func TruncNormal() *truncNormal {
	return &truncNormal{Normal(), defaultTrunc}
}

// SD sets the standard deviation
func (t *truncNormal) SD(sd float64) *truncNormal {
	t.normal.SD(sd)
	return t
}

// Mean sets the center
func (t *truncNormal) Mean(mean float64) *truncNormal {
	t.normal.Mean(mean)
	return t
}

// Trunc sets the cutoff, in standard deviations. It panics if 'sds' is not positive.
func (t *truncNormal) Trunc(sds float64) *truncNormal {
	if sds <= 0 {
		panic("Can't truncate normal distribution at a non-positive number of standard deviations")
	}

	t.trunc = sds
	return t
}

func (t *truncNormal) Gen(r *rand.Rand) float64 {
	v := r.NormFloat64()
	for v < -t.trunc || v > t.trunc {
		v = r.NormFloat64()
	}
	return v*t.σ + t.µ
}
