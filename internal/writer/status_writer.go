// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"

	"github.com/tamzrod/modbus-blockio/internal/codec"
	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
	"github.com/tamzrod/modbus-blockio/internal/status"
)

// StatusWriter is the delivery-only contract for device status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// DeviceStatusWriter writes the status block through a driver.
// The first write, and the first write after any failure, asserts the whole
// block (device name included). Otherwise only changed slots are written.
type DeviceStatusWriter struct {
	plan *StatusPlan
	w    RecordWriter

	needFull bool
	last     status.Snapshot
}

// NewDeviceStatusWriter builds a status writer if status is enabled.
// If plan.Status is nil, status is disabled.
func NewDeviceStatusWriter(plan Plan, w RecordWriter) (*DeviceStatusWriter, bool) {
	if plan.Status == nil || w == nil {
		return nil, false
	}
	return &DeviceStatusWriter{
		plan:     plan.Status,
		w:        w,
		needFull: true,
		last:     status.Snapshot{Health: status.HealthUnknown},
	}, true
}

func (sw *DeviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}

	var records []*field.Record
	if sw.needFull {
		records = sw.fullBlock(s)
	} else {
		if sw.last.Health != s.Health {
			records = append(records, sw.slot("health_code", status.SlotHealthCode, s.Health))
		}
		if sw.last.LastErrorCode != s.LastErrorCode {
			records = append(records, sw.slot("last_error_code", status.SlotLastErrorCode, s.LastErrorCode))
		}
		if sw.last.SecondsInError != s.SecondsInError {
			records = append(records, sw.slot("seconds_in_error", status.SlotSecondsInError, s.SecondsInError))
		}
	}
	if len(records) == 0 {
		return nil
	}

	if _, err := sw.w.Write(records); err != nil {
		// any failure introduces doubt: re-assert on next success
		sw.needFull = true
		return fmt.Errorf("status writer: slot=%d: %w", sw.plan.Slot, err)
	}

	sw.needFull = false
	sw.last = s
	return nil
}

// base is the byte offset of the block in the holding registers.
func (sw *DeviceStatusWriter) base() uint32 {
	return uint32(sw.plan.Slot) * status.SlotsPerDevice * status.SlotBytes
}

func (sw *DeviceStatusWriter) slot(name string, slot int, v uint16) *field.Record {
	return &field.Record{
		Name:   name,
		Domain: modbus.HoldingRegisters,
		Field:  field.Field{Type: codec.TypeUint16, Offset: sw.base() + uint32(slot)*status.SlotBytes},
		Value:  v,
	}
}

func (sw *DeviceStatusWriter) span(name string, from, to int, v any, typ codec.Type) *field.Record {
	return &field.Record{
		Name:   name,
		Domain: modbus.HoldingRegisters,
		Field: field.Field{
			Type:   typ,
			Offset: sw.base() + uint32(from)*status.SlotBytes,
			Size:   uint32(to-from) * status.SlotBytes,
		},
		Value: v,
	}
}

// fullBlock covers every slot of the block, so the driver sends it as one
// contiguous write.
func (sw *DeviceStatusWriter) fullBlock(s status.Snapshot) []*field.Record {
	nameEnd := status.SlotDeviceNameStart + status.SlotDeviceNameSlots
	return []*field.Record{
		sw.slot("health_code", status.SlotHealthCode, s.Health),
		sw.slot("last_error_code", status.SlotLastErrorCode, s.LastErrorCode),
		sw.slot("seconds_in_error", status.SlotSecondsInError, s.SecondsInError),
		sw.span("reserved", status.SlotReservedStart, status.SlotReservedEnd+1, []byte{}, codec.TypeBytes),
		sw.span("device_name", status.SlotDeviceNameStart, nameEnd, sw.plan.DeviceName, codec.TypeString),
		sw.span("tail", nameEnd, status.SlotsPerDevice, []byte{}, codec.TypeBytes),
	}
}
