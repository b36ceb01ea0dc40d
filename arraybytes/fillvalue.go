package arraybytes

import "github.com/zarrcore/engine/datatype"

// NewFillValue builds an ArrayBytes of numElements entirely composed of
// fv, consistent with dt's variant: repeated payload for Fixed,
// uniform-stride offsets for Variable, and a data+mask pair (all-zero
// mask for null, all-one for non-null) for Optional.
func NewFillValue(dt datatype.DataType, numElements uint64, fv datatype.FillValue) (ArrayBytes, error) {
	if opt, ok := dt.(datatype.Optional); ok {
		if fv.IsNull(opt) {
			var innerFV datatype.FillValue
			if innerSize := opt.Inner.Size(); innerSize.IsFixed() {
				innerFV = datatype.NewFillValue(make([]byte, innerSize.N()))
			} else {
				innerFV = datatype.NewFillValue(nil)
			}
			inner, err := NewFillValue(opt.Inner, numElements, innerFV)
			if err != nil {
				return ArrayBytes{}, err
			}
			return inner.WithOptionalMask(make([]byte, numElements)), nil
		}

		raw := fv.Bytes()
		innerPayload := raw
		if len(raw) > 0 {
			innerPayload = raw[:len(raw)-1] // strip the trailing nullity tag
		}
		innerFV := datatype.NewFillValue(innerPayload)
		inner, err := NewFillValue(opt.Inner, numElements, innerFV)
		if err != nil {
			return ArrayBytes{}, err
		}
		mask := make([]byte, numElements)
		for i := range mask {
			mask[i] = 1
		}
		return inner.WithOptionalMask(mask), nil
	}

	if err := datatype.Validate(dt, fv); err != nil {
		return ArrayBytes{}, err
	}

	size := dt.Size()
	if size.IsFixed() {
		raw := make([]byte, numElements*size.N())
		payload := fv.Bytes()
		for i := uint64(0); i < numElements; i++ {
			copy(raw[i*size.N():(i+1)*size.N()], payload)
		}
		return NewFixed(raw), nil
	}

	payload := fv.Bytes()
	raw := make([]byte, 0, numElements*uint64(len(payload)))
	offsets := make([]uint64, numElements+1)
	for i := uint64(0); i < numElements; i++ {
		raw = append(raw, payload...)
		offsets[i+1] = offsets[i] + uint64(len(payload))
	}
	return NewVariable(raw, offsets), nil
}

// IsFillValue reports whether every element of ab equals fv, used for
// fill-value elision on write. numElements and dt determine how ab is
// interpreted.
func IsFillValue(ab ArrayBytes, numElements uint64, dt datatype.DataType, fv datatype.FillValue) bool {
	expected, err := NewFillValue(dt, numElements, fv)
	if err != nil {
		return false
	}
	return equal(ab, expected)
}

func equal(a, b ArrayBytes) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindFixed:
		return bytesEqual(a.fixed, b.fixed)
	case kindVariable:
		return bytesEqual(a.variable, b.variable) && uint64sEqual(a.offsets, b.offsets)
	case kindOptional:
		return bytesEqual(a.mask, b.mask) && equal(*a.inner, *b.inner)
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func uint64sEqual(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
