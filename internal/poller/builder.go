// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/modbus-blockio/internal/config"
	"github.com/tamzrod/modbus-blockio/internal/field"
)

// Build constructs a Poller over every configured channel.
// The reader owns the connection; the poller only schedules cycles.
func Build(c *cfg.Config, reader Reader) (*Poller, error) {
	channels := make([]*field.Record, 0, len(c.Channels))
	for _, ch := range c.Channels {
		rec, err := ch.Record()
		if err != nil {
			return nil, err
		}
		channels = append(channels, rec)
	}

	return New(
		Config{
			DeviceID: c.Device.ID,
			Interval: time.Duration(c.Poll.IntervalMs) * time.Millisecond,
			Channels: channels,
		},
		reader,
	)
}
