// Package arraybytes implements the tagged-union container that every
// codec and the Array API pass elements through: Fixed (raw
// C-contiguous bytes), Variable (raw bytes plus offsets), and Optional
// (an inner ArrayBytes plus a byte-wide validity mask).
package arraybytes

import (
	"fmt"

	"github.com/zarrcore/engine/datatype"
)

// ArrayBytes is the tagged union. Exactly one of the Is* predicates is
// true for any valid value.
type ArrayBytes struct {
	kind     kind
	fixed    []byte
	variable []byte
	offsets  []uint64
	inner    *ArrayBytes
	mask     []byte
}

type kind int

const (
	kindFixed kind = iota
	kindVariable
	kindOptional
)

// NewFixed builds a Fixed ArrayBytes from C-contiguous raw bytes.
func NewFixed(raw []byte) ArrayBytes {
	b := make([]byte, len(raw))
	copy(b, raw)
	return ArrayBytes{kind: kindFixed, fixed: b}
}

// NewVariable builds a Variable ArrayBytes from a concatenated payload
// and monotone offsets (len(offsets) == numElements+1, offsets[0] == 0,
// offsets[last] == len(raw)). The caller is expected to have validated
// this already; Validate checks the offset count, monotonicity and final
// offset, but not offsets[0].
func NewVariable(raw []byte, offsets []uint64) ArrayBytes {
	b := make([]byte, len(raw))
	copy(b, raw)
	o := make([]uint64, len(offsets))
	copy(o, offsets)
	return ArrayBytes{kind: kindVariable, variable: b, offsets: o}
}

// WithOptionalMask wraps ab as the inner payload of an Optional
// ArrayBytes, with a byte-wide validity mask (one byte per element: 0
// null, nonzero not-null).
func (ab ArrayBytes) WithOptionalMask(mask []byte) ArrayBytes {
	inner := ab
	m := make([]byte, len(mask))
	copy(m, mask)
	return ArrayBytes{kind: kindOptional, inner: &inner, mask: m}
}

func (ab ArrayBytes) IsFixed() bool    { return ab.kind == kindFixed }
func (ab ArrayBytes) IsVariable() bool { return ab.kind == kindVariable }
func (ab ArrayBytes) IsOptional() bool { return ab.kind == kindOptional }

// Fixed returns the raw bytes of a Fixed ArrayBytes. It panics if ab is
// not Fixed; callers in codec/array-API code always know which variant
// they are holding because the data type determined it.
func (ab ArrayBytes) Fixed() []byte {
	if ab.kind != kindFixed {
		panic("arraybytes: Fixed() called on a non-fixed ArrayBytes")
	}
	return ab.fixed
}

// Variable returns the raw payload and offsets of a Variable ArrayBytes.
func (ab ArrayBytes) Variable() (raw []byte, offsets []uint64) {
	if ab.kind != kindVariable {
		panic("arraybytes: Variable() called on a non-variable ArrayBytes")
	}
	return ab.variable, ab.offsets
}

// Optional returns the inner ArrayBytes and validity mask of an Optional
// ArrayBytes.
func (ab ArrayBytes) Optional() (inner ArrayBytes, mask []byte) {
	if ab.kind != kindOptional {
		panic("arraybytes: Optional() called on a non-optional ArrayBytes")
	}
	return *ab.inner, ab.mask
}

// ValidateError reports why an ArrayBytes failed validation against a
// data type and element count.
type ValidateError struct {
	Reason string
}

func (e *ValidateError) Error() string { return fmt.Sprintf("arraybytes: %s", e.Reason) }

func validateErr(format string, a ...any) error {
	return &ValidateError{Reason: fmt.Sprintf(format, a...)}
}

// Validate enforces §4.4: Fixed requires exactly numElements*fixedSize
// bytes; Variable requires numElements+1 monotone offsets ending at
// len(raw); Optional requires a mask of length numElements and a
// recursively valid inner buffer.
func Validate(ab ArrayBytes, numElements uint64, dt datatype.DataType) error {
	if opt, ok := dt.(datatype.Optional); ok {
		if !ab.IsOptional() {
			return validateErr("expected an Optional ArrayBytes for data type %s", dt.NameV3())
		}
		inner, mask := ab.Optional()
		if uint64(len(mask)) != numElements {
			return validateErr("optional mask length %d does not match element count %d", len(mask), numElements)
		}
		return Validate(inner, numElements, opt.Inner)
	}
	if ab.IsOptional() {
		return validateErr("unexpected Optional ArrayBytes for non-optional data type %s", dt.NameV3())
	}

	size := dt.Size()
	if size.IsFixed() {
		if !ab.IsFixed() {
			return validateErr("expected Fixed ArrayBytes for fixed-size data type %s", dt.NameV3())
		}
		expected := numElements * size.N()
		if uint64(len(ab.fixed)) != expected {
			return validateErr("fixed bytes length %d does not match expected %d", len(ab.fixed), expected)
		}
		return nil
	}

	if !ab.IsVariable() {
		return validateErr("expected Variable ArrayBytes for variable-size data type %s", dt.NameV3())
	}
	raw, offsets := ab.Variable()
	if uint64(len(offsets)) != numElements+1 {
		return validateErr("variable offsets length %d does not match element count+1 (%d)", len(offsets), numElements+1)
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return validateErr("variable offsets are not monotonically nondecreasing at index %d", i)
		}
	}
	if len(offsets) > 0 && offsets[len(offsets)-1] != uint64(len(raw)) {
		return validateErr("variable offsets' final value %d does not equal raw length %d", offsets[len(offsets)-1], len(raw))
	}
	return nil
}
