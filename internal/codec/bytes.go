// internal/codec/bytes.go
package codec

import (
	"bytes"

	"github.com/tamzrod/modbus-blockio/internal/block"
)

// TruncateFunc is told when a byte array did not fit the buffer.
// want is the declared size, got the number of bytes actually moved.
type TruncateFunc func(off, want, got uint32)

// BytesCodec moves a raw byte array of a declared size.
//
// Unlike the fixed-width codecs it tolerates a buffer that ends early: the
// transfer is cut to the bytes available and OnTruncate is called. Devices
// often answer with frames slightly narrower than the requested span.
// An offset past the end of the buffer is still ErrOutOfBounds.
type BytesCodec struct {
	size       uint32
	OnTruncate TruncateFunc
}

func Bytes(size uint32) *BytesCodec {
	return &BytesCodec{size: size}
}

func (c *BytesCodec) Size() uint32 { return c.size }

// available returns how many of the declared bytes fit at off.
func (c *BytesCodec) available(buf block.Buffer, off uint32) (uint32, error) {
	l := buf.Len()
	if off > l {
		return 0, block.CheckRange(buf, off, 0)
	}
	n := c.size
	if rest := l - off; rest < n {
		n = rest
		if c.OnTruncate != nil {
			c.OnTruncate(off, c.size, n)
		}
	}
	return n, nil
}

// Encode writes v padded with zeros (or cut) to the declared size.
func (c *BytesCodec) Encode(buf block.Buffer, off uint32, v []byte) error {
	n, err := c.available(buf, off)
	if err != nil {
		return err
	}
	data := make([]byte, n)
	copy(data, v)
	return block.WriteBytes(buf, off, data)
}

// Decode returns up to the declared size of bytes starting at off.
func (c *BytesCodec) Decode(buf block.Buffer, off uint32) ([]byte, error) {
	n, err := c.available(buf, off)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if err := block.ReadBytes(buf, off, out); err != nil {
		return nil, err
	}
	return out, nil
}

// StringCodec is an ASCII string in a fixed-size, NUL padded byte array.
type StringCodec struct {
	*BytesCodec
}

func String(size uint32) StringCodec {
	return StringCodec{BytesCodec: Bytes(size)}
}

// Encode replaces anything outside printable ASCII with '?'.
func (c StringCodec) Encode(buf block.Buffer, off uint32, s string) error {
	b := []byte(s)
	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}
	return c.BytesCodec.Encode(buf, off, b)
}

// Decode trims trailing NUL padding.
func (c StringCodec) Decode(buf block.Buffer, off uint32) (string, error) {
	b, err := c.BytesCodec.Decode(buf, off)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}
