// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"
)

// Writer re-asserts the configured setpoints on the device.
type Writer struct {
	plan Plan
	w    RecordWriter
}

func New(plan Plan, w RecordWriter) *Writer {
	return &Writer{plan: plan, w: w}
}

// Apply writes every setpoint in one driver cycle.
// Setpoints sharing registers are coalesced by the driver.
func (w *Writer) Apply() error {
	if len(w.plan.Setpoints) == 0 {
		return nil
	}

	res, err := w.w.Write(w.plan.Setpoints)
	if err == nil {
		return nil
	}
	if res == nil {
		return fmt.Errorf("writer: device=%s: %w", w.plan.DeviceID, err)
	}

	var errs []string
	for name, rec := range res.Records.AllFromFront() {
		if rec.Err != nil {
			errs = append(errs, fmt.Sprintf("writer: device=%s setpoint=%s err=%v", w.plan.DeviceID, name, rec.Err))
		}
	}
	if len(errs) == 0 {
		return fmt.Errorf("writer: device=%s: %w", w.plan.DeviceID, err)
	}
	return errors.New(strings.Join(errs, " | "))
}
