// Package chunkgrid maps array coordinates to chunk coordinates and back.
//
// A Grid is an invariant data structure: chunks are pairwise disjoint and
// their union covers the array domain. Downstream code (the Array API,
// disjoint-view merges) relies on this for unsynchronized writes into
// disjoint output regions.
package chunkgrid

import (
	"fmt"

	"github.com/zarrcore/engine/indexer"
)

// Grid maps array coordinates to chunk coordinates and vice versa. All
// operations are checked for dimensionality and return ok=false for
// out-of-bounds queries on bounded grids.
type Grid interface {
	Dimensionality() int
	ArrayShape() []uint64
	GridShape() []uint64

	// ChunkShape returns the nominal element shape of the chunk at
	// chunkIndices.
	ChunkShape(chunkIndices []uint64) (shape []uint64, ok bool)
	// ChunkOrigin returns the array-coordinate origin of the chunk.
	ChunkOrigin(chunkIndices []uint64) (origin []uint64, ok bool)
	// Subset returns the array subset covered by the chunk.
	Subset(chunkIndices []uint64) (subset *indexer.RangeSubset, ok bool)
	// ChunksInArraySubset returns the axis-aligned range of chunk
	// coordinates whose subsets intersect subset.
	ChunksInArraySubset(subset *indexer.RangeSubset) (chunkRange *indexer.RangeSubset, ok bool)
	// ChunkIndices returns the chunk coordinate containing an array
	// coordinate, and the coordinate's offset within that chunk.
	ChunkIndices(arrayIndices []uint64) (chunkIndices, chunkOffset []uint64, ok bool)

	ChunkIndicesInBounds(chunkIndices []uint64) bool
	ArrayIndicesInBounds(arrayIndices []uint64) bool
}

func divCeil(a, b uint64) uint64 {
	return (a + b - 1) / b
}

func validateShapes(arrayShape, chunkShape []uint64) error {
	if len(arrayShape) != len(chunkShape) {
		return fmt.Errorf("chunkgrid: array shape rank %d does not match chunk shape rank %d", len(arrayShape), len(chunkShape))
	}
	for i, c := range chunkShape {
		if c == 0 {
			return fmt.Errorf("chunkgrid: chunk shape component %d must be strictly positive", i)
		}
	}
	return nil
}

func chunkIndicesInBounds(chunkIndices, gridShape []uint64) bool {
	if len(chunkIndices) != len(gridShape) {
		return false
	}
	for i, g := range gridShape {
		if g == 0 {
			continue
		}
		if chunkIndices[i] >= g {
			return false
		}
	}
	return true
}

func arrayIndicesInBounds(arrayIndices, arrayShape []uint64) bool {
	if len(arrayIndices) != len(arrayShape) {
		return false
	}
	for i, s := range arrayShape {
		if s == 0 {
			continue
		}
		if arrayIndices[i] >= s {
			return false
		}
	}
	return true
}
