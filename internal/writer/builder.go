// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"

	cfg "github.com/tamzrod/modbus-blockio/internal/config"
	"github.com/tamzrod/modbus-blockio/internal/driver"
	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
)

// BuildPlan converts the setpoints of a config into a Writer Plan.
// Assumes config has already passed validation.
func BuildPlan(c *cfg.Config) (Plan, error) {
	if c.Device.ID == "" {
		return Plan{}, errors.New("writer: device.id required")
	}

	plan := Plan{DeviceID: c.Device.ID}

	channels := make(map[string]cfg.ChannelConfig, len(c.Channels))
	for _, ch := range c.Channels {
		channels[ch.Name] = ch
	}

	for _, sp := range c.Setpoints {
		ch, ok := channels[sp.Channel]
		if !ok {
			return Plan{}, fmt.Errorf("writer: setpoint %q: unknown channel", sp.Channel)
		}
		rec, err := ch.Record()
		if err != nil {
			return Plan{}, fmt.Errorf("writer: setpoint %q: %w", sp.Channel, err)
		}
		v, err := field.Coerce(rec.Field.Type, sp.Value)
		if err != nil {
			return Plan{}, fmt.Errorf("writer: setpoint %q: %w", sp.Channel, err)
		}
		rec.Value = v
		plan.Setpoints = append(plan.Setpoints, rec)
	}

	if st := c.Status; st != nil {
		plan.Status = &StatusPlan{
			Endpoint:   st.Endpoint,
			UnitID:     st.UnitID,
			Slot:       st.Slot,
			DeviceName: st.DeviceName,
		}
	}

	return plan, nil
}

// BuildStatusDriver connects to the status endpoint of plan and returns a
// driver over it. Status is disabled when plan.Status is nil.
func BuildStatusDriver(plan Plan, timeout time.Duration, log logger.Logger) (*driver.Driver, func() error, error) {
	if plan.Status == nil {
		return nil, func() error { return nil }, nil
	}

	tr, err := modbus.New(modbus.Config{
		Endpoint: plan.Status.Endpoint,
		UnitID:   plan.Status.UnitID,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("writer: status endpoint: %w", err)
	}

	d, err := driver.New(driver.Config{Transport: tr, Log: log})
	if err != nil {
		_ = tr.Close()
		return nil, nil, err
	}
	return d, tr.Close, nil
}
