package datatype

import (
	"encoding/binary"
	"fmt"
	"math"
)

// FillValue is an immutable byte vector supplying the element value for
// uninitialised chunk regions. For fixed types its length equals the
// type's element size; for optional types the last byte is the nullity
// tag (0 == null, nonzero == the inner value follows); for variable
// types the length is arbitrary.
type FillValue struct {
	raw []byte
}

// NewFillValue wraps raw bytes as a FillValue. The slice is copied.
func NewFillValue(raw []byte) FillValue {
	b := make([]byte, len(raw))
	copy(b, raw)
	return FillValue{raw: b}
}

func (f FillValue) Bytes() []byte {
	out := make([]byte, len(f.raw))
	copy(out, f.raw)
	return out
}

func (f FillValue) Len() int { return len(f.raw) }

func (f FillValue) Equal(o FillValue) bool {
	if len(f.raw) != len(o.raw) {
		return false
	}
	for i := range f.raw {
		if f.raw[i] != o.raw[i] {
			return false
		}
	}
	return true
}

func (f FillValue) String() string { return fmt.Sprintf("%x", f.raw) }

// DataTypeFillValueError reports that a fill value's shape does not
// match a data type's size requirements.
type DataTypeFillValueError struct {
	DataTypeName string
	FillValue    FillValue
}

func (e *DataTypeFillValueError) Error() string {
	return fmt.Sprintf("datatype: incompatible fill value %s for data type %s", e.FillValue, e.DataTypeName)
}

// Validate checks that a fill value is well-formed for dt: a Fixed
// (non-optional) type requires exactly dt.Size().N() bytes; an Optional
// fixed-inner type requires inner size + 1 bytes; variable types accept
// any length.
func Validate(dt DataType, fv FillValue) error {
	if opt, ok := dt.(Optional); ok {
		size, hasFixed := opt.FillValueSize()
		if !hasFixed {
			return nil // variable inner: any length is well-formed
		}
		if uint64(fv.Len()) != size.N() {
			return &DataTypeFillValueError{DataTypeName: dt.NameV3(), FillValue: fv}
		}
		return nil
	}
	size := dt.Size()
	if !size.IsFixed() {
		return nil
	}
	if uint64(fv.Len()) != size.N() {
		return &DataTypeFillValueError{DataTypeName: dt.NameV3(), FillValue: fv}
	}
	return nil
}

// IsNull reports whether an Optional fill value's nullity tag marks it
// null. It panics if dt is not Optional.
func (f FillValue) IsNull(dt DataType) bool {
	if _, ok := dt.(Optional); !ok {
		panic("datatype: IsNull called on a non-optional data type")
	}
	if len(f.raw) == 0 {
		return true
	}
	return f.raw[len(f.raw)-1] == 0
}

// Zero builds the zero-valued fill value for a fixed data type: all-zero
// bytes for numeric kinds, an all-zero-tagged null for Optional, and an
// empty payload for variable kinds.
func Zero(dt DataType) FillValue {
	switch t := dt.(type) {
	case Optional:
		size, ok := t.FillValueSize()
		if !ok {
			return NewFillValue(nil) // null, no inner payload recorded
		}
		return NewFillValue(make([]byte, size.N())) // trailing tag byte is 0: null
	default:
		size := dt.Size()
		if !size.IsFixed() {
			return NewFillValue(nil)
		}
		return NewFillValue(make([]byte, size.N()))
	}
}

// FromUint64 encodes an unsigned integer fill value in little-endian,
// truncated/padded to dt's fixed size.
func FromUint64(dt DataType, v uint64) (FillValue, error) {
	size := dt.Size()
	if !size.IsFixed() {
		return FillValue{}, fmt.Errorf("datatype: cannot build a numeric fill value for variable-size type %s", dt.NameV3())
	}
	buf := make([]byte, size.N())
	full := make([]byte, 8)
	binary.LittleEndian.PutUint64(full, v)
	copy(buf, full)
	return NewFillValue(buf), nil
}

// FromFloat64 encodes a floating-point fill value (float32 or float64)
// in little-endian.
func FromFloat64(dt DataType, v float64) (FillValue, error) {
	f, ok := dt.(Fixed)
	if !ok {
		return FillValue{}, fmt.Errorf("datatype: %s is not a floating-point fixed type", dt.NameV3())
	}
	switch f.nameV3 {
	case "float32":
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
		return NewFillValue(buf), nil
	case "float64":
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		return NewFillValue(buf), nil
	default:
		return FillValue{}, fmt.Errorf("datatype: %s is not a floating-point fixed type", dt.NameV3())
	}
}

// FromVariable builds a variable-length fill value from a raw payload,
// e.g. a default string or bytes value.
func FromVariable(payload []byte) FillValue {
	return NewFillValue(payload)
}

// Optional tag bytes, named for readability at call sites.
const (
	TagNull    byte = 0
	TagNotNull byte = 1
)

// NewOptionalFillValue builds an Optional fill value: innerPayload
// followed by the nullity tag. When null is true, innerPayload is
// ignored and the tag is TagNull (the inner bytes are still emitted as
// zero, to keep the fill value a fixed width for fixed inner types).
func NewOptionalFillValue(opt Optional, innerPayload []byte, null bool) FillValue {
	if null {
		zeroed := make([]byte, len(innerPayload))
		return NewFillValue(append(zeroed, TagNull))
	}
	buf := make([]byte, len(innerPayload)+1)
	copy(buf, innerPayload)
	buf[len(innerPayload)] = TagNotNull
	return NewFillValue(buf)
}
