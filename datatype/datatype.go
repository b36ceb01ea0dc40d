// Package datatype describes Zarr element types: fixed-size numeric and
// complex kinds, variable-length string/bytes, fixed-length UTF-32, and
// the optional (nullable) wrapper. It mirrors the numpy-style dtype
// strings a store's metadata carries (e.g. "<f4", "|b1") without adopting
// numpy's binary layout assumptions.
package datatype

import "fmt"

// Size describes an element's encoded width: either a fixed byte count or
// "variable", meaning each element's length depends on its payload.
type Size struct {
	fixed bool
	n     uint64
}

// FixedSize returns a Size describing an n-byte fixed-width element.
func FixedSize(n uint64) Size { return Size{fixed: true, n: n} }

// VariableSize returns a Size describing a variable-width element.
func VariableSize() Size { return Size{fixed: false} }

func (s Size) IsFixed() bool { return s.fixed }

// N returns the fixed byte width. It panics if the size is variable;
// callers must check IsFixed first.
func (s Size) N() uint64 {
	if !s.fixed {
		panic("datatype: N() called on a variable size")
	}
	return s.n
}

func (s Size) String() string {
	if s.fixed {
		return fmt.Sprintf("fixed(%d)", s.n)
	}
	return "variable"
}

// CodecCapabilities advertises which codec categories a data type is
// known to be compatible with. Extension types populate this to steer
// codec-chain validation without the codec plane needing to know about
// every data type kind.
type CodecCapabilities struct {
	// SupportsEndianness is false for single-byte and non-numeric types;
	// the bytes codec never byte-swaps these, and rejects an explicit
	// endian parameter only for a multi-byte type without it.
	SupportsEndianness bool
}

// DataType is the tagged union described by the data model: every
// concrete kind (fixed numeric, variable-length, UTF-32, optional
// wrapper, or a user extension) implements this interface.
type DataType interface {
	// NameV3 is the canonical Zarr v3 data type name, e.g. "uint8",
	// "float32", "string".
	NameV3() string
	// NameV2Optional is the numpy-style v2 dtype string, when one
	// exists (extension types may have none).
	NameV2Optional() (string, bool)
	// Size reports whether elements of this type are fixed or
	// variable width, and the fixed width if applicable.
	Size() Size
	// IsOptional reports whether this is an Optional(inner) wrapper.
	IsOptional() bool
	Capabilities() CodecCapabilities
}

// Fixed is a fixed-size numeric or complex data type: bool, integers,
// floats, and complex numbers built from them.
type Fixed struct {
	nameV3   string
	nameV2   string
	sizeB    uint64
	endian   bool // whether this kind has byte-order semantics
}

func newFixed(nameV3, nameV2 string, sizeB uint64, endian bool) Fixed {
	return Fixed{nameV3: nameV3, nameV2: nameV2, sizeB: sizeB, endian: endian}
}

func (f Fixed) NameV3() string                    { return f.nameV3 }
func (f Fixed) NameV2Optional() (string, bool)    { return f.nameV2, f.nameV2 != "" }
func (f Fixed) Size() Size                        { return FixedSize(f.sizeB) }
func (f Fixed) IsOptional() bool                  { return false }
func (f Fixed) Capabilities() CodecCapabilities   { return CodecCapabilities{SupportsEndianness: f.endian} }

var (
	Bool    = newFixed("bool", "|b1", 1, false)
	Int8    = newFixed("int8", "|i1", 1, false)
	Int16   = newFixed("int16", "<i2", 2, true)
	Int32   = newFixed("int32", "<i4", 4, true)
	Int64   = newFixed("int64", "<i8", 8, true)
	Uint8   = newFixed("uint8", "|u1", 1, false)
	Uint16  = newFixed("uint16", "<u2", 2, true)
	Uint32  = newFixed("uint32", "<u4", 4, true)
	Uint64  = newFixed("uint64", "<u8", 8, true)
	Float32 = newFixed("float32", "<f4", 4, true)
	Float64 = newFixed("float64", "<f8", 8, true)
	// Complex64/Complex128 pack two float32/float64 components.
	Complex64  = newFixed("complex64", "<c8", 8, true)
	Complex128 = newFixed("complex128", "<c16", 16, true)
)

// FixedKinds lists every built-in Fixed data type, for registries and
// table-driven tests.
var FixedKinds = []Fixed{
	Bool, Int8, Int16, Int32, Int64,
	Uint8, Uint16, Uint32, Uint64,
	Float32, Float64, Complex64, Complex128,
}

// ParseNumpyDType parses a numpy-style dtype string ("<f4", "|b1", ">i8")
// into the matching Fixed kind. Big-endian strings are accepted for
// parsing (the endianness is a codec-level concern, not a data-type
// identity) but the kind's own NameV2Optional always reports its native
// little/none form.
func ParseNumpyDType(s string) (Fixed, error) {
	if len(s) < 3 {
		return Fixed{}, fmt.Errorf("datatype: invalid numpy dtype %q", s)
	}
	endian := s[0]
	if endian != '<' && endian != '>' && endian != '|' {
		return Fixed{}, fmt.Errorf("datatype: invalid byte-order marker in dtype %q", s)
	}
	kind := s[1]
	var size int
	if _, err := fmt.Sscanf(s[2:], "%d", &size); err != nil {
		return Fixed{}, fmt.Errorf("datatype: invalid size in dtype %q: %w", s, err)
	}
	for _, f := range FixedKinds {
		if f.kindByte() == kind && int(f.sizeB) == size {
			return f, nil
		}
	}
	return Fixed{}, fmt.Errorf("datatype: unsupported dtype %q", s)
}

func (f Fixed) kindByte() byte {
	switch f.nameV3 {
	case "bool":
		return 'b'
	case "int8", "int16", "int32", "int64":
		return 'i'
	case "uint8", "uint16", "uint32", "uint64":
		return 'u'
	case "float32", "float64":
		return 'f'
	case "complex64", "complex128":
		return 'c'
	default:
		return 0
	}
}

var _ DataType = Fixed{}
