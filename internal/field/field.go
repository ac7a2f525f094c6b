// internal/field/field.go
package field

import (
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/codec"
	"github.com/tamzrod/modbus-blockio/internal/status"
)

// Field places one typed value on a domain's byte address space.
// Geometry + encoding only: no transport.
type Field struct {
	Type   codec.Type
	Offset uint32 // absolute byte address
	Order  codec.Order
	Size   uint32 // bytes and string only
	Bit    uint8  // bool only, 0 = LSB
}

// Width is the number of bytes the field occupies.
func (f Field) Width() uint32 {
	return f.Type.Width(f.Size)
}

func (f Field) Interval() block.Interval {
	return block.Interval{Start: f.Offset, End: f.Offset + f.Width()}
}

func (f Field) Validate() error {
	if _, ok := codecTypes[f.Type]; !ok && f.Type != codec.TypeBool {
		return fmt.Errorf("field: unknown type %s", f.Type)
	}
	if f.Type.Sized() && f.Size == 0 {
		return fmt.Errorf("field: %s requires a size", f.Type)
	}
	if f.Type == codec.TypeBool && f.Bit > 7 {
		return fmt.Errorf("field: bit %d out of range 0..7", f.Bit)
	}
	if f.Offset+f.Width() < f.Offset {
		return errors.New("field: address space overflow")
	}
	return nil
}

var codecTypes = map[codec.Type]struct{}{
	codec.TypeUint8: {}, codec.TypeInt8: {},
	codec.TypeUint16: {}, codec.TypeInt16: {},
	codec.TypeUint32: {}, codec.TypeInt32: {},
	codec.TypeUint64: {}, codec.TypeInt64: {},
	codec.TypeFloat32: {}, codec.TypeFloat64: {},
	codec.TypeBytes: {}, codec.TypeString: {},
}

// Record is one channel request and, after the cycle, its result.
type Record struct {
	Name   string
	Domain string
	Field  Field

	// Value is the value to write (Write) or the decoded value (Read).
	Value any

	Status status.Channel
	Err    error
	At     time.Time
}

func (r *Record) succeed(now time.Time) {
	r.Status = status.ChannelGood
	r.Err = nil
	r.At = now
}

// Fail marks the record failed. The driver uses it for records that never
// reach a task, such as an unknown domain.
func (r *Record) Fail(err error, now time.Time) {
	r.Status = status.ChannelFailure
	r.Err = err
	r.At = now
}

// Reset clears the outcome of a previous cycle. Value is kept for writes.
func (r *Record) Reset() {
	r.Status = status.ChannelUnknown
	r.Err = nil
	r.At = time.Time{}
}
