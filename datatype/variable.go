package datatype

// String is the variable-length UTF-8 string data type. Elements are
// stored as raw UTF-8 bytes in an ArrayBytes.Variable payload.
type String struct{}

func (String) NameV3() string                  { return "string" }
func (String) NameV2Optional() (string, bool)  { return "", false }
func (String) Size() Size                      { return VariableSize() }
func (String) IsOptional() bool                { return false }
func (String) Capabilities() CodecCapabilities { return CodecCapabilities{} }

// Bytes is the variable-length raw byte string data type.
type Bytes struct{}

func (Bytes) NameV3() string                  { return "bytes" }
func (Bytes) NameV2Optional() (string, bool)  { return "", false }
func (Bytes) Size() Size                      { return VariableSize() }
func (Bytes) IsOptional() bool                { return false }
func (Bytes) Capabilities() CodecCapabilities { return CodecCapabilities{} }

// UTF32 is a fixed-length UTF-32 string: every element is exactly
// LengthBytes bytes, a multiple of 4 (one code point per 4-byte slot,
// NUL-padded).
type UTF32 struct {
	LengthBytes uint64
}

func NewUTF32(codePoints uint64) UTF32 {
	return UTF32{LengthBytes: codePoints * 4}
}

func (u UTF32) NameV3() string                 { return "utf32" }
func (UTF32) NameV2Optional() (string, bool)   { return "", false }
func (u UTF32) Size() Size                     { return FixedSize(u.LengthBytes) }
func (UTF32) IsOptional() bool                 { return false }
func (UTF32) Capabilities() CodecCapabilities  { return CodecCapabilities{SupportsEndianness: true} }

var (
	_ DataType = String{}
	_ DataType = Bytes{}
	_ DataType = UTF32{}
)
