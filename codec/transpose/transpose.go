// Package transpose implements the "transpose" ArrayToArray codec:
// permutes the dimensions of a chunk's elements.
package transpose

import (
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/codec"
)

// Codec permutes chunk dimensions per Order: Order[i] names which source
// axis becomes output axis i.
type Codec struct {
	Order []int
}

func New(order []int) *Codec { return &Codec{Order: order} }

func (c *Codec) Name() string { return "transpose" }

func (c *Codec) validate(rep codec.ChunkRepresentation) error {
	if len(c.Order) != len(rep.Shape) {
		return fmt.Errorf("transpose: order length %d does not match chunk rank %d", len(c.Order), len(rep.Shape))
	}
	seen := make([]bool, len(c.Order))
	for _, axis := range c.Order {
		if axis < 0 || axis >= len(c.Order) || seen[axis] {
			return fmt.Errorf("transpose: order %v is not a permutation", c.Order)
		}
		seen[axis] = true
	}
	if !rep.DataType.Size().IsFixed() {
		return &codec.UnsupportedDataTypeError{Codec: c.Name(), DataType: rep.DataType.NameV3()}
	}
	return nil
}

func inverseOrder(order []int) []int {
	inv := make([]int, len(order))
	for i, axis := range order {
		inv[axis] = i
	}
	return inv
}

func permuteShape(shape []uint64, order []int) []uint64 {
	out := make([]uint64, len(shape))
	for i, axis := range order {
		out[i] = shape[axis]
	}
	return out
}

// permute rearranges a C-contiguous element buffer from sourceShape into
// one laid out as sourceShape permuted by order.
func permute(data []byte, sourceShape []uint64, order []int, elementSize uint64) []byte {
	n := len(sourceShape)
	destShape := permuteShape(sourceShape, order)
	out := make([]byte, len(data))

	srcStrides := cStrides(sourceShape)
	dstStrides := cStrides(destShape)

	idx := make([]uint64, n)
	var walk func(dim int)
	walk = func(dim int) {
		if dim == n {
			srcFlat := uint64(0)
			for i := 0; i < n; i++ {
				srcFlat += idx[i] * srcStrides[i]
			}
			dstFlat := uint64(0)
			for destAxis, srcAxis := range order {
				dstFlat += idx[srcAxis] * dstStrides[destAxis]
			}
			copy(out[dstFlat*elementSize:(dstFlat+1)*elementSize], data[srcFlat*elementSize:(srcFlat+1)*elementSize])
			return
		}
		for i := uint64(0); i < sourceShape[dim]; i++ {
			idx[dim] = i
			walk(dim + 1)
		}
	}
	if n > 0 {
		walk(0)
	} else if len(data) > 0 {
		copy(out, data)
	}
	return out
}

func cStrides(shape []uint64) []uint64 {
	s := make([]uint64, len(shape))
	stride := uint64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		s[i] = stride
		stride *= shape[i]
	}
	return s
}

func (c *Codec) Encode(ab arraybytes.ArrayBytes, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	if err := c.validate(rep); err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	if !ab.IsFixed() {
		return arraybytes.ArrayBytes{}, fmt.Errorf("transpose: expected Fixed ArrayBytes")
	}
	elementSize := rep.DataType.Size().N()
	out := permute(ab.Fixed(), rep.Shape, c.Order, elementSize)
	return arraybytes.NewFixed(out), nil
}

func (c *Codec) Decode(ab arraybytes.ArrayBytes, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	if err := c.validate(rep); err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	if !ab.IsFixed() {
		return arraybytes.ArrayBytes{}, fmt.Errorf("transpose: expected Fixed ArrayBytes")
	}
	elementSize := rep.DataType.Size().N()
	transposedShape := permuteShape(rep.Shape, c.Order)
	out := permute(ab.Fixed(), transposedShape, inverseOrder(c.Order), elementSize)
	return arraybytes.NewFixed(out), nil
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) (codec.RecommendedConcurrency, error) {
	return codec.MaximumConcurrency(1), nil
}

func (c *Codec) EncodedRepresentation(input codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	out := input
	out.Shape = permuteShape(input.Shape, c.Order)
	return out, nil
}

var _ codec.ArrayToArray = (*Codec)(nil)
