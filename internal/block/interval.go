// internal/block/interval.go
package block

import "fmt"

// Interval is a half-open byte range [Start, End) on a device address space.
// Geometry only: no mode, no data.
type Interval struct {
	Start uint32
	End   uint32
}

// NewInterval returns [start, end) or ErrInvalidInterval when end < start.
func NewInterval(start, end uint32) (Interval, error) {
	if end < start {
		return Interval{}, fmt.Errorf("%w: [%d,%d)", ErrInvalidInterval, start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Len returns End - Start.
func (i Interval) Len() uint32 {
	return i.End - i.Start
}

// Contains reports whether o lies fully inside i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

// Overlaps reports whether i and o share at least one byte.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

// Compare orders by Start, then End.
func (i Interval) Compare(o Interval) int {
	switch {
	case i.Start < o.Start:
		return -1
	case i.Start > o.Start:
		return 1
	case i.End < o.End:
		return -1
	case i.End > o.End:
		return 1
	}
	return 0
}

func (i Interval) Less(o Interval) bool {
	return i.Compare(o) < 0
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.Start, i.End)
}
