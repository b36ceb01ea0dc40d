package datatype_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/datatype"
)

func TestParseNumpyDType(t *testing.T) {
	tests := []struct {
		input     string
		name      string
		size      uint64
		expectErr bool
	}{
		{"<f4", "float32", 4, false},
		{"<i8", "int64", 8, false},
		{"|b1", "bool", 1, false},
		{">f4", "float32", 4, false},
		{"x2", "", 0, true},
		{"<x4", "", 0, true},
		{"<i", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			dt, err := datatype.ParseNumpyDType(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.name, dt.NameV3())
			require.Equal(t, tt.size, dt.Size().N())
		})
	}
}

func TestFixedFillValueValidate(t *testing.T) {
	fv := datatype.Zero(datatype.Uint8)
	require.NoError(t, datatype.Validate(datatype.Uint8, fv))
	require.Equal(t, 1, fv.Len())

	bad := datatype.NewFillValue([]byte{1, 2})
	require.Error(t, datatype.Validate(datatype.Uint8, bad))
}

func TestOptionalFillValueLayout(t *testing.T) {
	opt := datatype.NewOptional(datatype.Uint8)
	nullFV := datatype.NewOptionalFillValue(opt, []byte{0}, true)
	require.True(t, nullFV.IsNull(opt))
	require.Equal(t, 2, nullFV.Len())

	someFV := datatype.NewOptionalFillValue(opt, []byte{7}, false)
	require.False(t, someFV.IsNull(opt))
	require.Equal(t, []byte{7, datatype.TagNotNull}, someFV.Bytes())

	require.NoError(t, datatype.Validate(opt, nullFV))
	require.NoError(t, datatype.Validate(opt, someFV))
}

func TestVariableSizeHasNoFixedWidth(t *testing.T) {
	require.False(t, datatype.String{}.Size().IsFixed())
	require.False(t, datatype.Bytes{}.Size().IsFixed())
}

func TestUTF32IsMultipleOfFour(t *testing.T) {
	u := datatype.NewUTF32(3)
	require.Equal(t, uint64(12), u.Size().N())
}

func TestFromFloat64(t *testing.T) {
	fv, err := datatype.FromFloat64(datatype.Float32, 1.5)
	require.NoError(t, err)
	require.Equal(t, 4, fv.Len())

	_, err = datatype.FromFloat64(datatype.Uint8, 1.5)
	require.Error(t, err)
}
