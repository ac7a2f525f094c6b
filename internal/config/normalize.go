// internal/config/normalize.go
package config

import (
	"strings"

	"github.com/tamzrod/modbus-blockio/internal/status"
)

const (
	DefaultTimeoutMs = 1000
	DefaultLogLevel  = "INFO"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	d := &cfg.Device
	d.Transport = strings.ToLower(d.Transport)
	if d.Transport == "" {
		d.Transport = "tcp"
	}
	if d.TimeoutMs == 0 {
		d.TimeoutMs = DefaultTimeoutMs
	}
	if d.Transport == "rtu" {
		s := &d.Serial
		s.Parity = strings.ToUpper(s.Parity)
		if s.Parity == "" {
			s.Parity = "E"
		}
		if s.BaudRate == 0 {
			s.BaudRate = 19200
		}
		if s.DataBits == 0 {
			s.DataBits = 8
		}
		if s.StopBits == 0 {
			s.StopBits = 1
		}
	}

	for i := range cfg.Channels {
		ch := &cfg.Channels[i]
		ch.Domain = strings.ToLower(strings.TrimSpace(ch.Domain))
		ch.Type = strings.ToLower(strings.TrimSpace(ch.Type))
		ch.ByteOrder = strings.ToLower(strings.TrimSpace(ch.ByteOrder))
		if ch.ByteOrder == "" {
			ch.ByteOrder = "big"
		}
	}

	for i := range cfg.Aggregation.Prohibited {
		p := &cfg.Aggregation.Prohibited[i]
		p.Domain = strings.ToLower(strings.TrimSpace(p.Domain))
	}

	// device_name: ASCII already validated, truncate to the block's name slots
	if st := cfg.Status; st != nil && len(st.DeviceName) > status.DeviceNameMaxChars {
		st.DeviceName = st.DeviceName[:status.DeviceNameMaxChars]
	}

	cfg.Log.Level = strings.ToUpper(cfg.Log.Level)
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
