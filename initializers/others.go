package initializers

// The usual variance scaling presets. Each returns a new Initializer, so changing one (with
// Factor, say) does not affect the others.

type leCun struct {
	*varianceScaling
}

// LeCun scales by fan-in, with a factor of 1
func LeCun() leCun {
	return leCun{VarianceScaling().In()}
}

type he struct {
	*varianceScaling
}

// He scales by fan-in with a factor of 2, for layers followed by ReLU
func He() he {
	return he{VarianceScaling().In().Factor(2)}
}

type xavier struct {
	*varianceScaling
}

// Xavier scales by the average of fan-in and fan-out
func Xavier() xavier {
	return xavier{VarianceScaling().Avg()}
}

// Glorot is another name for Xavier
func Glorot() xavier {
	return Xavier()
}
