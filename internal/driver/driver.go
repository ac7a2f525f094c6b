// internal/driver/driver.go
package driver

import (
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/elliotchance/orderedmap/v3"
	"github.com/google/uuid"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
)

var (
	ErrReadOnly      = errors.New("driver: domain is read-only")
	ErrDuplicateName = errors.New("driver: duplicate channel name")
)

// Transport moves contiguous byte ranges of named domains.
// *modbus.Transport implements it.
type Transport interface {
	ReadBlock(domain string, start uint32, out []byte) error
	WriteBlock(domain string, start uint32, data []byte) error
	Geometry(domain string) (modbus.Geometry, error)
}

type Config struct {
	Transport Transport
	Log       logger.Logger

	// ReadMinGap is the widest gap two read spans may bridge.
	ReadMinGap uint32
	// UpdateReadMinGap is the same for the read pass of a write cycle.
	UpdateReadMinGap uint32

	// Prohibited ranges per domain: never bridged by a merged transfer.
	Prohibited map[string][]block.Interval

	// DumpBuffers logs every transferred buffer at debug level.
	DumpBuffers bool

	Now func() time.Time
}

// Driver turns channel records into coalesced block transfers.
// One Read or Write call is one cycle. Calls may run concurrently when the
// Transport serializes access, as long as they do not share records.
type Driver struct {
	cfg Config
	log logger.Logger
}

func New(cfg Config) (*Driver, error) {
	if cfg.Transport == nil {
		return nil, errors.New("driver: transport required")
	}
	if cfg.Log == nil {
		return nil, errors.New("driver: logger required")
	}
	for d, ivs := range cfg.Prohibited {
		for _, iv := range ivs {
			if iv.End < iv.Start {
				return nil, fmt.Errorf("driver: prohibited %s in %s: %w", iv, d, block.ErrInvalidInterval)
			}
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Driver{cfg: cfg, log: cfg.Log}, nil
}

// Result is the outcome of one cycle, keyed by channel name in request order.
type Result struct {
	CycleID   string
	Records   *orderedmap.OrderedMap[string, *field.Record]
	Transfers int
	Failed    int
}

// Read fetches every record in as few transfers as the aggregation allows.
// Records of a failed transfer carry its error; the others still succeed.
// The returned error joins every transfer and setup error of the cycle.
func (d *Driver) Read(records []*field.Record) (*Result, error) {
	return d.run(block.Read, records)
}

// Write sends every record's Value. Records that do not cover whole write
// units are read first and written back with the value patched in.
func (d *Driver) Write(records []*field.Record) (*Result, error) {
	return d.run(block.Write, records)
}

func (d *Driver) run(mode block.Mode, records []*field.Record) (*Result, error) {
	c := &cycle{
		d:    d,
		id:   uuid.NewString(),
		mode: mode,
		res:  orderedmap.NewOrderedMap[string, *field.Record](),
	}

	var errs []error
	byDomain := orderedmap.NewOrderedMap[string, []*field.Record]()
	for _, r := range records {
		if _, dup := c.res.Get(r.Name); dup {
			err := fmt.Errorf("%w: %q", ErrDuplicateName, r.Name)
			r.Fail(err, d.cfg.Now())
			errs = append(errs, err)
			continue
		}
		r.Reset()
		c.res.Set(r.Name, r)
		rs, _ := byDomain.Get(r.Domain)
		byDomain.Set(r.Domain, append(rs, r))
	}

	var tasks []*block.ToplevelTask
	for domain, rs := range byDomain.AllFromFront() {
		tt, err := c.plan(domain, rs)
		if err != nil {
			errs = append(errs, err)
		}
		tasks = append(tasks, tt...)
	}

	d.log.Debugf("cycle=%s %s: %d records, %d transfers", c.id, mode, c.res.Len(), len(tasks))

	if err := block.RunAll(block.NewCycle(), tasks); err != nil {
		errs = append(errs, err)
	}

	res := &Result{CycleID: c.id, Records: c.res, Transfers: c.transfers}
	for _, r := range c.res.AllFromFront() {
		if r.Err != nil {
			res.Failed++
		}
	}
	return res, errors.Join(errs...)
}
