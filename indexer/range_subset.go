package indexer

// RangeSubset is an N-dimensional axis-aligned box: Start[i] <= idx[i] <
// Start[i]+Shape[i] for every axis i.
type RangeSubset struct {
	Start []uint64
	Shape []uint64
}

// NewRangeSubset builds a RangeSubset from a start and shape. The slices
// are copied.
func NewRangeSubset(start, shape []uint64) *RangeSubset {
	s := make([]uint64, len(start))
	copy(s, start)
	sh := make([]uint64, len(shape))
	copy(sh, shape)
	return &RangeSubset{Start: s, Shape: sh}
}

// FullRangeSubset builds a RangeSubset spanning [0, shape) on every axis.
func FullRangeSubset(shape []uint64) *RangeSubset {
	return NewRangeSubset(make([]uint64, len(shape)), shape)
}

func (r *RangeSubset) Dimensionality() int { return len(r.Start) }

func (r *RangeSubset) Len() uint64 { return NumElements(r.Shape) }

func (r *RangeSubset) OutputShape() []uint64 {
	out := make([]uint64, len(r.Shape))
	copy(out, r.Shape)
	return out
}

// IsEmpty reports whether the subset has a zero-length dimension.
func (r *RangeSubset) IsEmpty() bool {
	for _, s := range r.Shape {
		if s == 0 {
			return true
		}
	}
	return false
}

// End returns the exclusive end coordinate on each axis.
func (r *RangeSubset) End() []uint64 {
	end := make([]uint64, len(r.Start))
	for i := range r.Start {
		end[i] = r.Start[i] + r.Shape[i]
	}
	return end
}

func (r *RangeSubset) checkShape(arrayShape []uint64) error {
	if len(arrayShape) != r.Dimensionality() {
		return newDimErr(r.Dimensionality(), len(arrayShape))
	}
	end := r.End()
	for i, s := range arrayShape {
		if s == 0 {
			continue // unbounded dims are always in-bounds
		}
		if end[i] > s {
			return newBoundsErr("range subset exceeds array shape on an axis")
		}
	}
	return nil
}

// Intersect returns the intersection of r and o, or (nil, false) if they do
// not overlap.
func (r *RangeSubset) Intersect(o *RangeSubset) (*RangeSubset, bool) {
	if r.Dimensionality() != o.Dimensionality() {
		return nil, false
	}
	n := r.Dimensionality()
	start := make([]uint64, n)
	shape := make([]uint64, n)
	rEnd, oEnd := r.End(), o.End()
	for i := 0; i < n; i++ {
		s := max64(r.Start[i], o.Start[i])
		e := min64(rEnd[i], oEnd[i])
		if s >= e {
			return nil, false
		}
		start[i] = s
		shape[i] = e - s
	}
	return &RangeSubset{Start: start, Shape: shape}, true
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// Indices yields every coordinate in the box, last axis fastest (C-order).
func (r *RangeSubset) Indices(arrayShape []uint64) ([][]uint64, error) {
	if err := r.checkShape(arrayShape); err != nil {
		return nil, err
	}
	n := r.Len()
	out := make([][]uint64, 0, n)
	idx := make([]uint64, len(r.Start))
	copy(idx, r.Start)
	end := r.End()
	if r.IsEmpty() {
		return out, nil
	}
	for {
		cur := make([]uint64, len(idx))
		copy(cur, idx)
		out = append(out, cur)

		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < end[i] {
				break
			}
			idx[i] = r.Start[i]
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}

// LinearisedIndices yields each coordinate's C-order linear offset against
// arrayShape.
func (r *RangeSubset) LinearisedIndices(arrayShape []uint64) ([]uint64, error) {
	idxs, err := r.Indices(arrayShape)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(idxs))
	for i, idx := range idxs {
		out[i] = Linearise(idx, arrayShape)
	}
	return out, nil
}

// ContiguousLinearisedIndices collapses the fastest-varying axes into the
// run length: if the subset spans array axes k..n in full (start==0 and
// shape==arrayShape on each of those axes), the run length is the product
// of the subset shape on axes k-1..n, since the selected extent of axis
// k-1 is contiguous once every faster axis is full. This is the primitive
// that makes multi-dimensional partial reads issue O(prefix axes) byte
// ranges.
func (r *RangeSubset) ContiguousLinearisedIndices(arrayShape []uint64) ([]Run, error) {
	if err := r.checkShape(arrayShape); err != nil {
		return nil, err
	}
	if r.IsEmpty() {
		return nil, nil
	}
	n := r.Dimensionality()

	// Find the largest suffix of axes (contiguousFrom..n) over which the
	// subset is full-width relative to arrayShape. Runs are collapsed over
	// that suffix and the next-slower axis.
	contiguousFrom := n
	for i := n - 1; i >= 0; i-- {
		if r.Start[i] == 0 && r.Shape[i] == arrayShape[i] && arrayShape[i] != 0 {
			contiguousFrom = i
			continue
		}
		break
	}
	if contiguousFrom > 0 {
		contiguousFrom--
	}

	runLength := uint64(1)
	for i := contiguousFrom; i < n; i++ {
		runLength *= r.Shape[i]
	}

	// Iterate over the prefix axes (0..contiguousFrom), emitting one run
	// per prefix coordinate.
	prefixShape := r.Shape[:contiguousFrom]
	prefixStart := r.Start[:contiguousFrom]
	if contiguousFrom == 0 {
		// The whole subset collapses into a single run starting at the
		// subset's own linear offset.
		start := make([]uint64, n)
		copy(start, r.Start)
		return []Run{{Offset: Linearise(start, arrayShape), Length: runLength}}, nil
	}

	numPrefix := NumElements(prefixShape)
	runs := make([]Run, 0, numPrefix)
	idx := make([]uint64, contiguousFrom)
	copy(idx, prefixStart)
	end := make([]uint64, contiguousFrom)
	for i := range end {
		end[i] = prefixStart[i] + prefixShape[i]
	}
	full := make([]uint64, n)
	for {
		copy(full, idx)
		for i := contiguousFrom; i < n; i++ {
			full[i] = r.Start[i]
		}
		runs = append(runs, Run{Offset: Linearise(full, arrayShape), Length: runLength})

		i := contiguousFrom - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < end[i] {
				break
			}
			idx[i] = prefixStart[i]
		}
		if i < 0 {
			break
		}
	}
	return runs, nil
}

// ContiguousByteRanges is ContiguousLinearisedIndices scaled by elementSize.
func (r *RangeSubset) ContiguousByteRanges(arrayShape []uint64, elementSize uint64) ([]ByteRange, error) {
	runs, err := r.ContiguousLinearisedIndices(arrayShape)
	if err != nil {
		return nil, err
	}
	out := make([]ByteRange, len(runs))
	for i, run := range runs {
		out[i] = ByteRange{Offset: run.Offset * elementSize, Length: run.Length * elementSize}
	}
	return out, nil
}

var _ Indexer = (*RangeSubset)(nil)
