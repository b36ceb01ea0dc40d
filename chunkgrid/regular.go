package chunkgrid

import "github.com/zarrcore/engine/indexer"

// Regular is a chunk grid where every chunk shares chunk_shape. Per §4.2,
// the regular grid does not truncate edge chunks: the element count of an
// edge chunk equals the nominal chunk shape, so callers (the Array API)
// must clip requests to the array subset themselves.
type Regular struct {
	arrayShape []uint64
	chunkShape []uint64
	gridShape  []uint64
}

// NewRegular builds a Regular grid. chunkShape components must all be
// strictly positive and match arrayShape's rank.
func NewRegular(arrayShape, chunkShape []uint64) (*Regular, error) {
	if err := validateShapes(arrayShape, chunkShape); err != nil {
		return nil, err
	}
	grid := make([]uint64, len(arrayShape))
	for i := range arrayShape {
		if arrayShape[i] == 0 {
			grid[i] = 0 // unbounded: unlimited chunks along this axis
			continue
		}
		grid[i] = divCeil(arrayShape[i], chunkShape[i])
	}
	return &Regular{arrayShape: arrayShape, chunkShape: chunkShape, gridShape: grid}, nil
}

func (g *Regular) Dimensionality() int    { return len(g.chunkShape) }
func (g *Regular) ArrayShape() []uint64   { return g.arrayShape }
func (g *Regular) GridShape() []uint64    { return g.gridShape }

func (g *Regular) ChunkShape(chunkIndices []uint64) ([]uint64, bool) {
	if !g.ChunkIndicesInBounds(chunkIndices) {
		return nil, false
	}
	out := make([]uint64, len(g.chunkShape))
	copy(out, g.chunkShape)
	return out, true
}

func (g *Regular) ChunkOrigin(chunkIndices []uint64) ([]uint64, bool) {
	if !g.ChunkIndicesInBounds(chunkIndices) {
		return nil, false
	}
	origin := make([]uint64, len(chunkIndices))
	for i, c := range chunkIndices {
		origin[i] = c * g.chunkShape[i]
	}
	return origin, true
}

func (g *Regular) Subset(chunkIndices []uint64) (*indexer.RangeSubset, bool) {
	origin, ok := g.ChunkOrigin(chunkIndices)
	if !ok {
		return nil, false
	}
	return indexer.NewRangeSubset(origin, g.chunkShape), true
}

func (g *Regular) ChunksInArraySubset(subset *indexer.RangeSubset) (*indexer.RangeSubset, bool) {
	if subset.Dimensionality() != g.Dimensionality() {
		return nil, false
	}
	if subset.IsEmpty() {
		return indexer.NewRangeSubset(make([]uint64, g.Dimensionality()), make([]uint64, g.Dimensionality())), true
	}
	n := g.Dimensionality()
	start := make([]uint64, n)
	shape := make([]uint64, n)
	end := subset.End()
	for i := 0; i < n; i++ {
		startChunk := subset.Start[i] / g.chunkShape[i]
		endChunk := (end[i] - 1) / g.chunkShape[i]
		start[i] = startChunk
		shape[i] = endChunk - startChunk + 1
	}
	return indexer.NewRangeSubset(start, shape), true
}

func (g *Regular) ChunkIndices(arrayIndices []uint64) ([]uint64, []uint64, bool) {
	if !g.ArrayIndicesInBounds(arrayIndices) {
		return nil, nil, false
	}
	n := len(arrayIndices)
	chunkIdx := make([]uint64, n)
	offset := make([]uint64, n)
	for i := 0; i < n; i++ {
		chunkIdx[i] = arrayIndices[i] / g.chunkShape[i]
		offset[i] = arrayIndices[i] % g.chunkShape[i]
	}
	return chunkIdx, offset, true
}

func (g *Regular) ChunkIndicesInBounds(chunkIndices []uint64) bool {
	return chunkIndicesInBounds(chunkIndices, g.gridShape)
}

func (g *Regular) ArrayIndicesInBounds(arrayIndices []uint64) bool {
	return arrayIndicesInBounds(arrayIndices, g.arrayShape)
}

var _ Grid = (*Regular)(nil)
