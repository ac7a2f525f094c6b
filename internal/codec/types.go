// internal/codec/types.go
package codec

import (
	"fmt"

	"github.com/tamzrod/modbus-blockio/internal/block"
)

// Type is the primitive type of a field as named in configuration.
type Type uint8

const (
	TypeUint8 Type = iota + 1
	TypeInt8
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint64
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeBytes
	TypeString
	TypeBool // one bit of one byte
)

var typeNames = map[Type]string{
	TypeUint8:   "uint8",
	TypeInt8:    "int8",
	TypeUint16:  "uint16",
	TypeInt16:   "int16",
	TypeUint32:  "uint32",
	TypeInt32:   "int32",
	TypeUint64:  "uint64",
	TypeInt64:   "int64",
	TypeFloat32: "float32",
	TypeFloat64: "float64",
	TypeBytes:   "bytes",
	TypeString:  "string",
	TypeBool:    "bool",
}

func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("codec: unknown type %q", s)
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// Sized reports whether the type needs an explicit size.
func (t Type) Sized() bool {
	return t == TypeBytes || t == TypeString
}

// Width is the byte width of fixed types; size for sized types.
func (t Type) Width(size uint32) uint32 {
	switch t {
	case TypeUint8, TypeInt8, TypeBool:
		return 1
	case TypeUint16, TypeInt16:
		return 2
	case TypeUint32, TypeInt32, TypeFloat32:
		return 4
	case TypeUint64, TypeInt64, TypeFloat64:
		return 8
	default:
		return size
	}
}

// Any is a codec whose values travel as interface values. It is what the
// channel mapping uses when the type is only known from configuration.
type Any interface {
	Size() uint32
	EncodeAny(buf block.Buffer, off uint32, v any) error
	DecodeAny(buf block.Buffer, off uint32) (any, error)
}

type anyCodec[T any] struct {
	c Codec[T]
}

func (a anyCodec[T]) Size() uint32 { return a.c.Size() }

func (a anyCodec[T]) EncodeAny(buf block.Buffer, off uint32, v any) error {
	tv, ok := v.(T)
	if !ok {
		var zero T
		return fmt.Errorf("%w: got %T, want %T", ErrValueType, v, zero)
	}
	return a.c.Encode(buf, off, tv)
}

func (a anyCodec[T]) DecodeAny(buf block.Buffer, off uint32) (any, error) {
	return a.c.Decode(buf, off)
}

// Wrap lifts a typed codec to Any.
func Wrap[T any](c Codec[T]) Any {
	return anyCodec[T]{c: c}
}

// For returns the codec of t. size is used by bytes and string only.
// onTruncate may be nil. TypeBool has no codec: bits are handled by
// GetBit/SetBit on a single byte.
func For(t Type, o Order, size uint32, onTruncate TruncateFunc) (Any, error) {
	switch t {
	case TypeUint8:
		return Wrap(Uint8(o)), nil
	case TypeInt8:
		return Wrap(Int8(o)), nil
	case TypeUint16:
		return Wrap(Uint16(o)), nil
	case TypeInt16:
		return Wrap(Int16(o)), nil
	case TypeUint32:
		return Wrap(Uint32(o)), nil
	case TypeInt32:
		return Wrap(Int32(o)), nil
	case TypeUint64:
		return Wrap(Uint64(o)), nil
	case TypeInt64:
		return Wrap(Int64(o)), nil
	case TypeFloat32:
		return Wrap(Float32(o)), nil
	case TypeFloat64:
		return Wrap(Float64(o)), nil
	case TypeBytes:
		c := Bytes(size)
		c.OnTruncate = onTruncate
		return Wrap[[]byte](c), nil
	case TypeString:
		c := String(size)
		c.OnTruncate = onTruncate
		return Wrap[string](c), nil
	default:
		return nil, fmt.Errorf("codec: no codec for %s", t)
	}
}
