// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
	"github.com/tamzrod/modbus-blockio/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Every problem found is reported, joined with " | ".
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}

	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	d := cfg.Device
	if d.ID == "" {
		add("device: id required")
	}
	if d.Endpoint == "" {
		add("device %q: endpoint required", d.ID)
	}
	switch strings.ToLower(d.Transport) {
	case "", "tcp":
	case "rtu":
		switch strings.ToUpper(d.Serial.Parity) {
		case "", "N", "E", "O":
		default:
			add("device %q: parity must be N, E or O", d.ID)
		}
		if d.Serial.BaudRate < 0 || d.Serial.DataBits < 0 || d.Serial.StopBits < 0 {
			add("device %q: serial settings must not be negative", d.ID)
		}
	default:
		add("device %q: unknown transport %q", d.ID, d.Transport)
	}
	if d.TimeoutMs < 0 {
		add("device %q: timeout_ms must be >= 0", d.ID)
	}

	// ------------------------------------------------------------
	// POLL
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs <= 0 {
		add("poll: interval_ms must be > 0")
	}

	// ------------------------------------------------------------
	// CHANNEL GEOMETRY
	// ------------------------------------------------------------

	if len(cfg.Channels) == 0 {
		add("channels: at least one channel required")
	}

	type channel struct {
		domain string
		field  field.Field
	}
	channels := make(map[string]channel, len(cfg.Channels))

	for i, ch := range cfg.Channels {
		if ch.Name == "" {
			add("channel #%d: name required", i)
			continue
		}
		if _, dup := channels[ch.Name]; dup {
			add("channel %q: duplicate name", ch.Name)
			continue
		}

		rec, err := ch.Record()
		if err != nil {
			add("%v", err)
			continue
		}

		size, _ := modbus.Size(rec.Domain)
		if end := uint64(rec.Field.Offset) + uint64(rec.Field.Width()); end > uint64(size) {
			add("channel %q: bytes [%d,%d) outside %s (%d bytes)", ch.Name, rec.Field.Offset, end, rec.Domain, size)
			continue
		}

		channels[ch.Name] = channel{domain: rec.Domain, field: rec.Field}
	}

	// ------------------------------------------------------------
	// AGGREGATION
	// ------------------------------------------------------------

	for i, p := range cfg.Aggregation.Prohibited {
		if _, err := modbus.ParseDomain(p.Domain); err != nil {
			add("prohibited #%d: %v", i, err)
		}
		if p.Start >= p.End {
			add("prohibited #%d: start %d must be < end %d", i, p.Start, p.End)
		}
	}

	// ------------------------------------------------------------
	// SETPOINTS
	// ------------------------------------------------------------

	seen := make(map[string]bool, len(cfg.Setpoints))
	for _, sp := range cfg.Setpoints {
		if seen[sp.Channel] {
			add("setpoint %q: duplicate channel", sp.Channel)
			continue
		}
		seen[sp.Channel] = true

		ch, ok := channels[sp.Channel]
		if !ok {
			add("setpoint %q: unknown channel", sp.Channel)
			continue
		}
		geo, err := modbus.DomainGeometry(ch.domain)
		if err != nil || !geo.Writable {
			add("setpoint %q: domain %s is read-only", sp.Channel, ch.domain)
			continue
		}
		if _, err := field.Coerce(ch.field.Type, sp.Value); err != nil {
			add("setpoint %q: %v", sp.Channel, err)
		}
	}

	// ------------------------------------------------------------
	// DEVICE STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := cfg.Status; st != nil {
		if st.Endpoint == "" {
			add("status: endpoint required")
		}
		for i := 0; i < len(st.DeviceName); i++ {
			if st.DeviceName[i] > 0x7F {
				add("status: device_name must contain ASCII characters only")
				break
			}
		}
		if (int(st.Slot)+1)*status.SlotsPerDevice > 1<<16 {
			add("status: slot %d outside the register space", st.Slot)
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
