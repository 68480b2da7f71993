package dataset

import (
	"context"
	"math/rand"
	"runtime"
)

// the number of images decoded at once
var loaders = runtime.NumCPU()

// Iterator goes through a dataset in shuffled batches. The last batch may be smaller.
//
//	it := ds.Batches(64, rng)
//	for it.Next(ctx) {
//		b := it.Batch()
//		...
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type Iterator struct {
	ds        *Dataset
	order     []int
	batchSize int
	pos       int

	batch *Batch
	err   error
}

// Batches returns an iterator over one pass of the dataset, in an order drawn from 'rng'.
func (ds *Dataset) Batches(batchSize int, rng *rand.Rand) *Iterator {
	if batchSize < 1 {
		batchSize = 1
	}

	return &Iterator{
		ds:        ds,
		order:     rng.Perm(len(ds.Items)),
		batchSize: batchSize,
	}
}

// Len returns the number of batches in one pass
func (it *Iterator) Len() int {
	return (len(it.order) + it.batchSize - 1) / it.batchSize
}

// Next loads the next batch, returning false when there are none left or loading fails.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil || it.pos >= len(it.order) {
		return false
	}

	end := it.pos + it.batchSize
	if end > len(it.order) {
		end = len(it.order)
	}

	items := make([]Item, 0, end-it.pos)
	for _, i := range it.order[it.pos:end] {
		items = append(items, it.ds.Items[i])
	}
	it.pos = end

	it.batch, it.err = it.ds.Load(ctx, items)
	return it.err == nil
}

// Batch returns the batch loaded by the last call to Next
func (it *Iterator) Batch() *Batch {
	return it.batch
}

// Err returns the error that stopped iteration, if any
func (it *Iterator) Err() error {
	return it.err
}
