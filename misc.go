package timemachinet

// Every returns a function that satisfies TrainArgs.ShouldSave. 'frequency' is in units of
// steps; the first step (0) always matches.
func Every(frequency int) func(int) bool {
	if frequency < 1 {
		frequency = 1
	}

	return func(step int) bool {
		return step%frequency == 0
	}
}
