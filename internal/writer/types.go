// internal/writer/types.go
package writer

import (
	"github.com/tamzrod/modbus-blockio/internal/driver"
	"github.com/tamzrod/modbus-blockio/internal/field"
)

// StatusPlan places the device status block on a supervision endpoint.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	Slot       uint16
	DeviceName string
}

// Plan is the fully-built write plan for one device.
type Plan struct {
	DeviceID  string
	Setpoints []*field.Record // Value already coerced
	Status    *StatusPlan
}

// RecordWriter is the exact contract the writers use.
// *driver.Driver implements it.
type RecordWriter interface {
	Write(records []*field.Record) (*driver.Result, error)
}
