// internal/field/coerce_test.go
package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-blockio/internal/codec"
)

func TestCoerce(t *testing.T) {
	cases := []struct {
		typ  codec.Type
		in   any
		want any
	}{
		{codec.TypeUint8, 255, uint8(255)},
		{codec.TypeInt8, -128, int8(-128)},
		{codec.TypeUint16, "0x10", uint16(16)},
		{codec.TypeInt16, float64(-3), int16(-3)},
		{codec.TypeUint32, uint64(7), uint32(7)},
		{codec.TypeInt32, "-1", int32(-1)},
		{codec.TypeUint64, "18446744073709551615", uint64(18446744073709551615)},
		{codec.TypeInt64, 12, int64(12)},
		{codec.TypeFloat32, 2, float32(2)},
		{codec.TypeFloat64, "1.25", 1.25},
		{codec.TypeFloat64, uint64(math.MaxUint64), float64(math.MaxUint64)},
		{codec.TypeFloat32, uint(1 << 63), float32(1 << 63)},
		{codec.TypeBool, 1, true},
		{codec.TypeBool, "true", true},
		{codec.TypeString, 42, "42"},
		{codec.TypeBytes, "0x0102ff", []byte{1, 2, 0xFF}},
	}
	for _, tc := range cases {
		got, err := Coerce(tc.typ, tc.in)
		require.NoError(t, err, "%s <- %v", tc.typ, tc.in)
		assert.Equal(t, tc.want, got, "%s <- %v", tc.typ, tc.in)
	}
}

func TestCoerce_Rejects(t *testing.T) {
	_, err := Coerce(codec.TypeUint8, 256)
	require.ErrorIs(t, err, ErrRange)

	_, err = Coerce(codec.TypeUint16, -1)
	require.ErrorIs(t, err, ErrRange)

	_, err = Coerce(codec.TypeInt16, 1.5)
	require.ErrorIs(t, err, ErrRange)

	_, err = Coerce(codec.TypeFloat32, 1e300)
	require.ErrorIs(t, err, ErrRange)

	_, err = Coerce(codec.TypeInt32, nil)
	require.Error(t, err)

	_, err = Coerce(codec.TypeBytes, 3)
	require.Error(t, err)
}
