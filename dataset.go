package engine

import (
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/indexer"
)

// Dataset iterates an Array dimension-0-first in fixed-size batches,
// crossing chunk boundaries transparently via RetrieveArraySubset. This
// generalizes the common "feed chunks to a training loop" access
// pattern to any batch size, not just the array's own chunk shape.
type Dataset struct {
	Array     *Array
	BatchSize uint64

	shape  []uint64
	cursor uint64
}

// NewDataset builds a Dataset over arr's first dimension, in batches of
// batchSize rows (or fewer, for a final partial batch).
func NewDataset(arr *Array, batchSize uint64) (*Dataset, error) {
	if arr == nil {
		return nil, fmt.Errorf("engine: NewDataset requires a non-nil Array")
	}
	if batchSize == 0 {
		return nil, fmt.Errorf("engine: NewDataset requires a strictly positive batch size")
	}
	shape := arr.Grid.ArrayShape()
	if len(shape) == 0 {
		return nil, fmt.Errorf("engine: NewDataset requires a rank >= 1 array")
	}
	return &Dataset{Array: arr, BatchSize: batchSize, shape: shape}, nil
}

// Reset rewinds iteration to the first batch.
func (d *Dataset) Reset() { d.cursor = 0 }

// Len returns the total number of batches a full pass over the dataset
// yields.
func (d *Dataset) Len() uint64 {
	n := d.shape[0]
	return (n + d.BatchSize - 1) / d.BatchSize
}

// NextBatch returns the next batch's data and its shape. done is true
// (with a zero-value batch) once every row has been consumed; the
// caller should Reset to iterate again.
func (d *Dataset) NextBatch() (data arraybytes.ArrayBytes, shape []uint64, done bool, err error) {
	n := d.shape[0]
	if d.cursor >= n {
		return arraybytes.ArrayBytes{}, nil, true, nil
	}

	batchRows := d.BatchSize
	if remaining := n - d.cursor; batchRows > remaining {
		batchRows = remaining
	}

	start := make([]uint64, len(d.shape))
	start[0] = d.cursor
	batchShape := make([]uint64, len(d.shape))
	batchShape[0] = batchRows
	copy(batchShape[1:], d.shape[1:])

	subset := indexer.NewRangeSubset(start, batchShape)
	data, err = d.Array.RetrieveArraySubset(subset)
	if err != nil {
		return arraybytes.ArrayBytes{}, nil, false, err
	}
	d.cursor += batchRows
	return data, batchShape, false, nil
}
