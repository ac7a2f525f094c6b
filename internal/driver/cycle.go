// internal/driver/cycle.go
package driver

import (
	"errors"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/elliotchance/orderedmap/v3"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/field"
)

// cycle is the state of one Read or Write call.
type cycle struct {
	d    *Driver
	id   string
	mode block.Mode
	res  *orderedmap.OrderedMap[string, *field.Record]

	transfers int
}

type aggregator interface {
	AddBlock(t block.Task) error
	AddProhibited(iv block.Interval)
	Stream() ([]*block.ToplevelTask, error)
}

// plan builds the toplevel tasks of one domain. Records that cannot be
// planned are failed here and reported in the returned error.
func (c *cycle) plan(domain string, records []*field.Record) ([]*block.ToplevelTask, error) {
	now := c.d.cfg.Now

	geo, err := c.d.cfg.Transport.Geometry(domain)
	if err == nil && c.mode == block.Write && !geo.Writable {
		err = fmt.Errorf("%w: %s", ErrReadOnly, domain)
	}
	if err != nil {
		for _, r := range records {
			r.Fail(err, now())
		}
		return nil, err
	}

	opts := field.Options{
		WriteAlign: geo.WriteAlign,
		Now:        now,
		OnTruncate: func(off, want, got uint32) {
			c.d.log.Infof("cycle=%s %s: value at %d truncated to %d of %d bytes", c.id, domain, off, got, want)
		},
	}

	var agg aggregator
	if c.mode == block.Read {
		agg, err = block.NewAggregator(block.Read, c.d.cfg.ReadMinGap, c.factory(domain))
	} else {
		agg, err = block.NewUpdateAggregator(c.d.cfg.UpdateReadMinGap, c.factory(domain))
	}
	if err != nil {
		return nil, err
	}
	for _, iv := range c.d.cfg.Prohibited[domain] {
		agg.AddProhibited(iv)
	}

	var leaves []block.Task
	var leafErrs []error
	if c.mode == block.Read {
		for _, r := range records {
			t, err := field.NewReadTask(r, opts)
			leaves = append(leaves, t)
			leafErrs = append(leafErrs, err)
		}
	} else {
		leaves, leafErrs = field.NewWriteTasks(records, opts)
	}

	var errs []error
	for i, r := range records {
		err := leafErrs[i]
		if err == nil {
			err = agg.AddBlock(leaves[i])
		}
		if err != nil {
			r.Fail(err, now())
			errs = append(errs, err)
		}
	}

	tasks, err := agg.Stream()
	if err != nil {
		for _, r := range records {
			r.Fail(err, now())
		}
		return nil, fmt.Errorf("driver: %s: %w", domain, err)
	}
	return tasks, errors.Join(errs...)
}

// factory binds toplevel tasks of one domain to the transport.
func (c *cycle) factory(domain string) block.Factory {
	return func(start, end uint32, mode block.Mode) (*block.ToplevelTask, error) {
		iv, err := block.NewInterval(start, end)
		if err != nil {
			return nil, err
		}
		proc := block.ProcessorFunc(func(t *block.ToplevelTask) error {
			return c.transfer(domain, t)
		})
		return block.NewToplevel(iv, mode, proc)
	}
}

func (c *cycle) transfer(domain string, t *block.ToplevelTask) error {
	c.transfers++

	buf := t.Buffer().(*block.ArrayBuffer).Bytes()
	iv := t.Interval()

	var err error
	switch t.Mode() {
	case block.Read:
		err = c.d.cfg.Transport.ReadBlock(domain, iv.Start, buf)
	case block.Write:
		err = c.d.cfg.Transport.WriteBlock(domain, iv.Start, buf)
	default:
		err = fmt.Errorf("driver: cannot transfer in %s mode", t.Mode())
	}
	if err != nil {
		c.d.log.Debugf("cycle=%s %s %s %s: %v", c.id, t.Mode(), domain, iv, err)
		return fmt.Errorf("driver: %s %s %s: %w", t.Mode(), domain, iv, err)
	}

	c.d.log.Debugf("cycle=%s %s %s %s: %d children", c.id, t.Mode(), domain, iv, len(t.Children()))
	if c.d.cfg.DumpBuffers {
		c.d.log.Debugf("cycle=%s buffer:\n%s", c.id, spew.Sdump(buf))
	}
	return nil
}
