// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/modbus-blockio/internal/field"
)

// PollResult is a snapshot produced by one poll cycle.
// Records are copies: the poller reuses its own records on the next cycle.
type PollResult struct {
	DeviceID string
	At       time.Time
	CycleID  string

	Records   []field.Record
	Transfers int
	Failed    int // channels that did not come back good

	Err error // non-nil means at least one transfer of the cycle failed
}

// Value returns the decoded value of a channel.
func (r PollResult) Value(name string) (any, bool) {
	for _, rec := range r.Records {
		if rec.Name == name {
			return rec.Value, rec.Err == nil
		}
	}
	return nil, false
}
