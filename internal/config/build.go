// internal/config/build.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-blockio/internal/block"
	"github.com/tamzrod/modbus-blockio/internal/codec"
	"github.com/tamzrod/modbus-blockio/internal/field"
	"github.com/tamzrod/modbus-blockio/internal/modbus"
)

// Field resolves a channel's placement. Names are matched case-insensitively
// so it works before and after Normalize.
func (c ChannelConfig) Field() (field.Field, error) {
	typ, err := codec.ParseType(strings.ToLower(strings.TrimSpace(c.Type)))
	if err != nil {
		return field.Field{}, err
	}
	order, err := codec.ParseOrder(strings.ToLower(strings.TrimSpace(c.ByteOrder)))
	if err != nil {
		return field.Field{}, err
	}
	if typ != codec.TypeBool && c.Bit != 0 {
		return field.Field{}, fmt.Errorf("bit is only valid for bool, not %s", typ)
	}
	f := field.Field{
		Type:   typ,
		Offset: c.Offset,
		Order:  order,
		Size:   c.Size,
		Bit:    c.Bit,
	}
	if err := f.Validate(); err != nil {
		return field.Field{}, err
	}
	return f, nil
}

// Record builds the channel record the driver works on.
func (c ChannelConfig) Record() (*field.Record, error) {
	f, err := c.Field()
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", c.Name, err)
	}
	domain, err := modbus.ParseDomain(c.Domain)
	if err != nil {
		return nil, fmt.Errorf("channel %q: %w", c.Name, err)
	}
	return &field.Record{Name: c.Name, Domain: domain, Field: f}, nil
}

// ProhibitedByDomain groups the prohibited ranges by normalized domain name.
// Entries with an unknown domain are skipped; Validate reports them.
func (a AggregationConfig) ProhibitedByDomain() map[string][]block.Interval {
	out := make(map[string][]block.Interval)
	for _, p := range a.Prohibited {
		d, err := modbus.ParseDomain(p.Domain)
		if err != nil {
			continue
		}
		out[d] = append(out[d], block.Interval{Start: p.Start, End: p.End})
	}
	return out
}
