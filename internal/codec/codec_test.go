// internal/codec/codec_test.go
package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-blockio/internal/block"
)

var orders = []Order{BigEndian, LittleEndian}

func roundTrip[T comparable](t *testing.T, c Codec[T], values ...T) {
	t.Helper()
	for _, v := range values {
		// odd offset: nothing may assume alignment
		buf := block.NewArrayBuffer(c.Size() + 3)
		require.NoError(t, c.Encode(buf, 3, v))
		got, err := c.Decode(buf, 3)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestRoundTrip_Integers(t *testing.T) {
	for _, o := range orders {
		roundTrip(t, Uint8(o), 0, 1, math.MaxUint8)
		roundTrip(t, Int8(o), 0, -1, math.MinInt8, math.MaxInt8)
		roundTrip(t, Uint16(o), 0, 1, math.MaxUint16)
		roundTrip(t, Int16(o), 0, -1, math.MinInt16, math.MaxInt16)
		roundTrip(t, Uint32(o), 0, 1, math.MaxUint32)
		roundTrip(t, Int32(o), 0, -1, math.MinInt32, math.MaxInt32)
		roundTrip(t, Uint64(o), 0, 1, math.MaxUint64)
		roundTrip(t, Int64(o), 0, -1, math.MinInt64, math.MaxInt64)
	}
}

func TestRoundTrip_FloatsBitExact(t *testing.T) {
	f32 := []float32{
		0, float32(math.Copysign(0, -1)), -1, math.MaxFloat32, -math.MaxFloat32,
		math.SmallestNonzeroFloat32, float32(math.Inf(1)), float32(math.Inf(-1)),
		math.Float32frombits(0x7FC00001), // NaN with payload
	}
	f64 := []float64{
		0, math.Copysign(0, -1), -1, math.MaxFloat64, -math.MaxFloat64,
		math.SmallestNonzeroFloat64, math.Inf(1), math.Inf(-1),
		math.Float64frombits(0x7FF8000000000123),
	}

	for _, o := range orders {
		c32 := Float32(o)
		for _, v := range f32 {
			buf := block.NewArrayBuffer(4)
			require.NoError(t, c32.Encode(buf, 0, v))
			got, err := c32.Decode(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, math.Float32bits(v), math.Float32bits(got))
		}

		c64 := Float64(o)
		for _, v := range f64 {
			buf := block.NewArrayBuffer(8)
			require.NoError(t, c64.Encode(buf, 0, v))
			got, err := c64.Decode(buf, 0)
			require.NoError(t, err)
			assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
		}
	}
}

func TestInt32_ByteLayout(t *testing.T) {
	cases := []struct {
		v     int32
		order Order
		want  []byte
	}{
		{-1, BigEndian, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{-1, LittleEndian, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{1, BigEndian, []byte{0x00, 0x00, 0x00, 0x01}},
		{1, LittleEndian, []byte{0x01, 0x00, 0x00, 0x00}},
	}
	for _, tc := range cases {
		buf := block.NewArrayBuffer(4)
		require.NoError(t, Int32(tc.order).Encode(buf, 0, tc.v))
		assert.Equal(t, tc.want, buf.Bytes(), "v=%d order=%s", tc.v, tc.order)
	}
}

func TestFixed_OutOfBounds(t *testing.T) {
	buf := block.NewArrayBuffer(4)

	require.ErrorIs(t, Uint32(BigEndian).Encode(buf, 1, 7), block.ErrOutOfBounds)
	_, err := Float64(LittleEndian).Decode(buf, 0)
	require.ErrorIs(t, err, block.ErrOutOfBounds)
	_, err = Uint8(BigEndian).Decode(buf, 4)
	require.ErrorIs(t, err, block.ErrOutOfBounds)

	assert.Equal(t, make([]byte, 4), buf.Bytes(), "failed encode must not touch the buffer")
}

func TestBits(t *testing.T) {
	b := byte(0)
	b = SetBit(b, 0, true)
	b = SetBit(b, 7, true)
	assert.Equal(t, byte(0x81), b)
	assert.True(t, GetBit(b, 7))
	assert.False(t, GetBit(b, 3))
	assert.Equal(t, byte(0x01), SetBit(b, 7, false))
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, BigEndian, o)

	o, err = ParseOrder("little")
	require.NoError(t, err)
	assert.Equal(t, LittleEndian, o)

	_, err = ParseOrder("middle")
	require.Error(t, err)
}
