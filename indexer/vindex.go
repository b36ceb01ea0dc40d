package indexer

// VIndexOrder selects how a VIndex's flat coordinate list is organized.
type VIndexOrder int

const (
	// DimensionMajor stores coordinates as one slice per axis:
	// Coords[axis][i] is the i-th selected index's coordinate on axis.
	DimensionMajor VIndexOrder = iota
	// ElementMajor stores coordinates as one slice per element:
	// Coords[i][axis] is the i-th selected element's coordinate on axis.
	ElementMajor
)

// VIndex is a vectorized list of array coordinates, analogous to NumPy
// fancy indexing. Order determines the in-memory layout of Coords but
// both expose the same logical sequence of coordinate tuples.
type VIndex struct {
	order          VIndexOrder
	dimensionality int
	length         int
	// dimMajor[axis][i] when order == DimensionMajor
	dimMajor [][]uint64
	// elemMajor[i][axis] when order == ElementMajor
	elemMajor [][]uint64
}

// NewVIndexDimensionMajor builds a VIndex from per-axis coordinate slices,
// all of equal length.
func NewVIndexDimensionMajor(coordsByAxis [][]uint64) *VIndex {
	length := 0
	if len(coordsByAxis) > 0 {
		length = len(coordsByAxis[0])
	}
	return &VIndex{
		order:          DimensionMajor,
		dimensionality: len(coordsByAxis),
		length:         length,
		dimMajor:       coordsByAxis,
	}
}

// NewVIndexElementMajor builds a VIndex from a list of coordinate tuples.
func NewVIndexElementMajor(coords [][]uint64) *VIndex {
	dim := 0
	if len(coords) > 0 {
		dim = len(coords[0])
	}
	return &VIndex{
		order:          ElementMajor,
		dimensionality: dim,
		length:         len(coords),
		elemMajor:      coords,
	}
}

func (v *VIndex) Dimensionality() int { return v.dimensionality }
func (v *VIndex) Len() uint64         { return uint64(v.length) }

func (v *VIndex) OutputShape() []uint64 {
	return []uint64{uint64(v.length)}
}

func (v *VIndex) at(i int) []uint64 {
	if v.order == ElementMajor {
		return v.elemMajor[i]
	}
	coord := make([]uint64, v.dimensionality)
	for axis := 0; axis < v.dimensionality; axis++ {
		coord[axis] = v.dimMajor[axis][i]
	}
	return coord
}

func (v *VIndex) checkShape(arrayShape []uint64) error {
	if len(arrayShape) != v.dimensionality {
		return newDimErr(v.dimensionality, len(arrayShape))
	}
	for i := 0; i < v.length; i++ {
		coord := v.at(i)
		if !inBounds(coord, arrayShape) {
			return newBoundsErr("vindex coordinate out of bounds of array shape")
		}
	}
	return nil
}

func (v *VIndex) Indices(arrayShape []uint64) ([][]uint64, error) {
	if err := v.checkShape(arrayShape); err != nil {
		return nil, err
	}
	out := make([][]uint64, v.length)
	for i := 0; i < v.length; i++ {
		out[i] = v.at(i)
	}
	return out, nil
}

func (v *VIndex) LinearisedIndices(arrayShape []uint64) ([]uint64, error) {
	if err := v.checkShape(arrayShape); err != nil {
		return nil, err
	}
	out := make([]uint64, v.length)
	for i := 0; i < v.length; i++ {
		out[i] = Linearise(v.at(i), arrayShape)
	}
	return out, nil
}

// ContiguousLinearisedIndices for a VIndex walks the coordinates in the
// vector's own order and extends the current run while each linear
// offset directly follows the previous one. It does not sort, so
// adjacent elements listed out of order stay separate runs; callers with
// coordinates forming a box should prefer a RangeSubset.
func (v *VIndex) ContiguousLinearisedIndices(arrayShape []uint64) ([]Run, error) {
	lin, err := v.LinearisedIndices(arrayShape)
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(lin))
	for i := 0; i < len(lin); {
		j := i + 1
		for j < len(lin) && lin[j] == lin[j-1]+1 {
			j++
		}
		runs = append(runs, Run{Offset: lin[i], Length: uint64(j - i)})
		i = j
	}
	return runs, nil
}

func (v *VIndex) ContiguousByteRanges(arrayShape []uint64, elementSize uint64) ([]ByteRange, error) {
	runs, err := v.ContiguousLinearisedIndices(arrayShape)
	if err != nil {
		return nil, err
	}
	out := make([]ByteRange, len(runs))
	for i, r := range runs {
		out[i] = ByteRange{Offset: r.Offset * elementSize, Length: r.Length * elementSize}
	}
	return out, nil
}

var _ Indexer = (*VIndex)(nil)
