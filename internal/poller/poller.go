// internal/poller/poller.go
package poller

import (
	"errors"
	"time"

	"github.com/tamzrod/modbus-blockio/internal/driver"
	"github.com/tamzrod/modbus-blockio/internal/field"
)

// Reader abstracts the driver operation the poller needs.
type Reader interface {
	Read(records []*field.Record) (*driver.Result, error)
}

// Config is the minimal runtime config the poller needs.
type Config struct {
	DeviceID string
	Interval time.Duration
	Channels []*field.Record
}

// Poller is a dumb, clock-driven reader.
type Poller struct {
	cfg    Config
	reader Reader
}

// New creates a poller with immutable config.
func New(cfg Config, reader Reader) (*Poller, error) {
	if cfg.DeviceID == "" {
		return nil, errors.New("poller: device id required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if len(cfg.Channels) == 0 {
		return nil, errors.New("poller: at least one channel required")
	}
	if reader == nil {
		return nil, errors.New("poller: reader required")
	}
	return &Poller{cfg: cfg, reader: reader}, nil
}

// PollOnce performs exactly one poll cycle.
// A failed transfer fails only the channels it carried.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		DeviceID: p.cfg.DeviceID,
		At:       time.Now(),
	}

	out, err := p.reader.Read(p.cfg.Channels)
	res.Err = err
	if out != nil {
		res.CycleID = out.CycleID
		res.Transfers = out.Transfers
		res.Failed = out.Failed
		res.Records = make([]field.Record, 0, out.Records.Len())
		for _, rec := range out.Records.AllFromFront() {
			res.Records = append(res.Records, *rec)
		}
	}
	return res
}
