// internal/modbus/domain.go
package modbus

import (
	"fmt"
	"strings"
)

// Data model areas, each exposed as its own byte address space.
//
// Registers occupy 2 bytes per address, big endian as on the wire, so
// register r lives at byte offset 2*r.
// Bits are packed 8 per byte LSB first, so coil c lives at bit c%8 of
// byte c/8.
const (
	Coils            = "coils"
	DiscreteInputs   = "discrete_inputs"
	HoldingRegisters = "holding_registers"
	InputRegisters   = "input_registers"
)

// Geometry describes how a domain may be written.
type Geometry struct {
	// WriteAlign is the smallest byte unit a write can cover.
	WriteAlign uint32
	Writable   bool
}

type area struct {
	bits     bool
	writable bool

	readFC  uint8
	writeFC uint8

	// per-request quantity limits, in addresses
	maxRead  uint32
	maxWrite uint32

	// address space size in bytes
	size uint32
}

// ---- protocol limits ----

const (
	maxReadRegisters  = 125
	maxWriteRegisters = 123
	maxReadBits       = 2000
	maxWriteBits      = 1968

	addressSpace = 1 << 16
)

var areas = map[string]area{
	Coils: {
		bits: true, writable: true, readFC: 1, writeFC: 15,
		maxRead: maxReadBits, maxWrite: maxWriteBits, size: addressSpace / 8,
	},
	DiscreteInputs: {
		bits: true, readFC: 2,
		maxRead: maxReadBits, size: addressSpace / 8,
	},
	HoldingRegisters: {
		writable: true, readFC: 3, writeFC: 16,
		maxRead: maxReadRegisters, maxWrite: maxWriteRegisters, size: addressSpace * 2,
	},
	InputRegisters: {
		readFC: 4,
		maxRead: maxReadRegisters, size: addressSpace * 2,
	},
}

// Domains lists the known domain names in a stable order.
func Domains() []string {
	return []string{Coils, DiscreteInputs, HoldingRegisters, InputRegisters}
}

// ParseDomain normalizes a configured domain name.
func ParseDomain(s string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(s))
	if _, ok := areas[d]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownDomain, s)
	}
	return d, nil
}

// DomainGeometry reports the write geometry of a domain.
func DomainGeometry(domain string) (Geometry, error) {
	a, ok := areas[domain]
	if !ok {
		return Geometry{}, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	g := Geometry{WriteAlign: 2, Writable: a.writable}
	if a.bits {
		g.WriteAlign = 1
	}
	return g, nil
}

// Size is the byte length of a domain's address space.
func Size(domain string) (uint32, error) {
	a, ok := areas[domain]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	return a.size, nil
}
