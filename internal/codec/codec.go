// internal/codec/codec.go
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/tamzrod/modbus-blockio/internal/block"
)

var ErrValueType = errors.New("codec: value has wrong type")

// Order is the byte order of a multi-byte field.
type Order uint8

const (
	BigEndian Order = iota
	LittleEndian
)

// ParseOrder accepts "big" / "little" (and the common BE/LE spellings).
// Empty means big endian, the Modbus wire order.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "big", "big_endian", "be":
		return BigEndian, nil
	case "little", "little_endian", "le":
		return LittleEndian, nil
	default:
		return 0, fmt.Errorf("codec: unknown byte order %q", s)
	}
}

func (o Order) ByteOrder() binary.ByteOrder {
	if o == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (o Order) String() string {
	if o == LittleEndian {
		return "little"
	}
	return "big"
}

// Codec encodes one primitive type at a byte offset of a block.Buffer.
// Fixed-size codecs fail with block.ErrOutOfBounds unless
// offset+Size() <= buf.Len().
type Codec[T any] interface {
	Size() uint32
	Encode(buf block.Buffer, off uint32, v T) error
	Decode(buf block.Buffer, off uint32) (T, error)
}

// fixed is a fixed-width codec: values go through an 8-byte scratch array
// and the buffer's bulk helpers.
type fixed[T any] struct {
	size  uint32
	order binary.ByteOrder
	put   func(b []byte, o binary.ByteOrder, v T)
	get   func(b []byte, o binary.ByteOrder) T
}

func (c fixed[T]) Size() uint32 { return c.size }

func (c fixed[T]) Encode(buf block.Buffer, off uint32, v T) error {
	var scratch [8]byte
	b := scratch[:c.size]
	c.put(b, c.order, v)
	return block.WriteBytes(buf, off, b)
}

func (c fixed[T]) Decode(buf block.Buffer, off uint32) (T, error) {
	var scratch [8]byte
	b := scratch[:c.size]
	if err := block.ReadBytes(buf, off, b); err != nil {
		var zero T
		return zero, err
	}
	return c.get(b, c.order), nil
}

// ---- constructors ----

// Uint8 ignores the order; it takes one for uniform construction.
func Uint8(_ Order) Codec[uint8] {
	return fixed[uint8]{
		size: 1,
		put:  func(b []byte, _ binary.ByteOrder, v uint8) { b[0] = v },
		get:  func(b []byte, _ binary.ByteOrder) uint8 { return b[0] },
	}
}

func Int8(_ Order) Codec[int8] {
	return fixed[int8]{
		size: 1,
		put:  func(b []byte, _ binary.ByteOrder, v int8) { b[0] = byte(v) },
		get:  func(b []byte, _ binary.ByteOrder) int8 { return int8(b[0]) },
	}
}

func Uint16(o Order) Codec[uint16] {
	return fixed[uint16]{
		size:  2,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v uint16) { bo.PutUint16(b, v) },
		get:   func(b []byte, bo binary.ByteOrder) uint16 { return bo.Uint16(b) },
	}
}

func Int16(o Order) Codec[int16] {
	return fixed[int16]{
		size:  2,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v int16) { bo.PutUint16(b, uint16(v)) },
		get:   func(b []byte, bo binary.ByteOrder) int16 { return int16(bo.Uint16(b)) },
	}
}

func Uint32(o Order) Codec[uint32] {
	return fixed[uint32]{
		size:  4,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v uint32) { bo.PutUint32(b, v) },
		get:   func(b []byte, bo binary.ByteOrder) uint32 { return bo.Uint32(b) },
	}
}

func Int32(o Order) Codec[int32] {
	return fixed[int32]{
		size:  4,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v int32) { bo.PutUint32(b, uint32(v)) },
		get:   func(b []byte, bo binary.ByteOrder) int32 { return int32(bo.Uint32(b)) },
	}
}

func Uint64(o Order) Codec[uint64] {
	return fixed[uint64]{
		size:  8,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v uint64) { bo.PutUint64(b, v) },
		get:   func(b []byte, bo binary.ByteOrder) uint64 { return bo.Uint64(b) },
	}
}

func Int64(o Order) Codec[int64] {
	return fixed[int64]{
		size:  8,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v int64) { bo.PutUint64(b, uint64(v)) },
		get:   func(b []byte, bo binary.ByteOrder) int64 { return int64(bo.Uint64(b)) },
	}
}

// Float32 moves the raw IEEE-754 bits: NaN payloads, -0 and infinities
// survive unchanged.
func Float32(o Order) Codec[float32] {
	return fixed[float32]{
		size:  4,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v float32) { bo.PutUint32(b, math.Float32bits(v)) },
		get:   func(b []byte, bo binary.ByteOrder) float32 { return math.Float32frombits(bo.Uint32(b)) },
	}
}

func Float64(o Order) Codec[float64] {
	return fixed[float64]{
		size:  8,
		order: o.ByteOrder(),
		put:   func(b []byte, bo binary.ByteOrder, v float64) { bo.PutUint64(b, math.Float64bits(v)) },
		get:   func(b []byte, bo binary.ByteOrder) float64 { return math.Float64frombits(bo.Uint64(b)) },
	}
}

// ---- bits ----

// GetBit reads bit (0 = LSB) of b.
func GetBit(b byte, bit uint8) bool {
	return b&(1<<(bit&7)) != 0
}

// SetBit returns b with bit (0 = LSB) set to v.
func SetBit(b byte, bit uint8, v bool) byte {
	if v {
		return b | 1<<(bit&7)
	}
	return b &^ (1 << (bit & 7))
}
