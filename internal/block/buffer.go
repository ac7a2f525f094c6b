// internal/block/buffer.go
package block

import "fmt"

// Buffer is byte-addressable scratch memory.
// Implementations only provide the single-byte primitives; bulk access is
// built on top of them by ReadBytes and WriteBytes.
type Buffer interface {
	Get(off uint32) (byte, error)
	Put(off uint32, b byte) error
	Len() uint32
}

// ArrayBuffer is the slice-backed Buffer.
type ArrayBuffer struct {
	data []byte
}

func NewArrayBuffer(n uint32) *ArrayBuffer {
	return &ArrayBuffer{data: make([]byte, n)}
}

// WrapBytes uses b as backing storage without copying.
func WrapBytes(b []byte) *ArrayBuffer {
	return &ArrayBuffer{data: b}
}

func (a *ArrayBuffer) Get(off uint32) (byte, error) {
	if off >= uint32(len(a.data)) {
		return 0, outOfBounds(off, 1, a.Len())
	}
	return a.data[off], nil
}

func (a *ArrayBuffer) Put(off uint32, b byte) error {
	if off >= uint32(len(a.data)) {
		return outOfBounds(off, 1, a.Len())
	}
	a.data[off] = b
	return nil
}

func (a *ArrayBuffer) Len() uint32 {
	return uint32(len(a.data))
}

// Bytes exposes the backing slice. Transports fill and drain it directly.
func (a *ArrayBuffer) Bytes() []byte {
	return a.data
}

// ReadBytes copies len(out) bytes starting at off into out.
// The whole range is checked before any byte moves.
func ReadBytes(buf Buffer, off uint32, out []byte) error {
	if err := CheckRange(buf, off, uint32(len(out))); err != nil {
		return err
	}
	for i := range out {
		b, err := buf.Get(off + uint32(i))
		if err != nil {
			return err
		}
		out[i] = b
	}
	return nil
}

// WriteBytes copies data into buf starting at off.
// The whole range is checked before any byte moves: no partial writes.
func WriteBytes(buf Buffer, off uint32, data []byte) error {
	if err := CheckRange(buf, off, uint32(len(data))); err != nil {
		return err
	}
	for i, b := range data {
		if err := buf.Put(off+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

// CheckRange fails with ErrOutOfBounds unless [off, off+n) fits in buf.
func CheckRange(buf Buffer, off, n uint32) error {
	l := buf.Len()
	if off > l || n > l-off {
		return outOfBounds(off, n, l)
	}
	return nil
}

func outOfBounds(off, n, l uint32) error {
	return fmt.Errorf("%w: offset=%d size=%d len=%d", ErrOutOfBounds, off, n, l)
}
