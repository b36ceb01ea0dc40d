package datatype

// Optional wraps an inner data type with per-element nullability ("T?").
// At the array-bytes layer an Optional array is the inner buffer plus a
// byte-wide validity mask (§4.3/§4.4); at the fill-value layer a single
// Optional fill value is the inner payload followed by a one-byte
// nullity tag (0 == null).
type Optional struct {
	Inner DataType
}

func NewOptional(inner DataType) Optional {
	return Optional{Inner: inner}
}

func (o Optional) NameV3() string { return o.Inner.NameV3() + "?" }

func (o Optional) NameV2Optional() (string, bool) {
	name, ok := o.Inner.NameV2Optional()
	return name, ok
}

// Size reports the inner type's element width. The validity mask is a
// parallel buffer, not part of the element width: the design notes
// deliberately keep masks byte-wide so codecs can compress them as an
// ordinary fixed-size uint8 buffer.
func (o Optional) Size() Size { return o.Inner.Size() }

func (Optional) IsOptional() bool { return true }

func (o Optional) Capabilities() CodecCapabilities { return o.Inner.Capabilities() }

// FillValueSize returns the width of this type's encoded fill value:
// the inner fixed size plus one tag byte, for fixed inner types. Variable
// inner types have no fixed fill-value width.
func (o Optional) FillValueSize() (Size, bool) {
	inner := o.Inner.Size()
	if !inner.IsFixed() {
		return Size{}, false
	}
	return FixedSize(inner.N() + 1), true
}

var _ DataType = Optional{}
