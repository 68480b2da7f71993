package utils

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// MultiThread runs an operation on a range of integers, spread across goroutines.
//
// should be run sequentially, not in a separate thread
// designed for use by operators or optimizers in their mass calculations
//
// the range includes 'start' and excludes 'end'
//  - MultiThread assumes that end ≥ start
// 'f' is the function that should be run for each value in the range
// 'opsPerThread' is the number of operations that each goroutine will handle before requesting another set
// 'threadsPerCPU' is the number of goroutines allowed to run at once, for each CPU
//
// f must only write to memory that no other index writes to. Under that condition the
// result does not depend on scheduling.
func MultiThread(start, end int, f func(int), opsPerThread, threadsPerCPU int) {
	if end <= start {
		return
	}

	if opsPerThread < 1 {
		opsPerThread = 1
	}
	if threadsPerCPU < 1 {
		threadsPerCPU = 1
	}

	// not worth the goroutines
	if end-start <= opsPerThread {
		for i := start; i < end; i++ {
			f(i)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU() * threadsPerCPU)

	for i := start; i < end; i += opsPerThread {
		s, e := i, i+opsPerThread
		if e > end {
			e = end
		}

		g.Go(func() error {
			for ; s < e; s++ {
				f(s)
			}
			return nil
		})
	}

	// the functions never fail
	_ = g.Wait()
}

// ForEach is MultiThread with one index per goroutine, for the case where each index is
// already a large amount of work (e.g. one sample of a batch).
func ForEach(n int, f func(int)) {
	MultiThread(0, n, f, 1, 1)
}
