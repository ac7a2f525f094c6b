// internal/modbus/transport.go
package modbus

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// Client is the subset of modbus.Client the transport needs.
type Client interface {
	ReadCoils(address, quantity uint16) ([]byte, error)                            // FC 1
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)                   // FC 2
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)                 // FC 3
	ReadInputRegisters(address, quantity uint16) ([]byte, error)                   // FC 4
	WriteMultipleCoils(address, quantity uint16, value []byte) ([]byte, error)     // FC 15
	WriteMultipleRegisters(address, quantity uint16, value []byte) ([]byte, error) // FC 16
}

type Config struct {
	// Mode is "tcp" (default) or "rtu".
	Mode     string
	Endpoint string // host:port for tcp, serial device for rtu
	UnitID   uint8
	Timeout  time.Duration

	// rtu only
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
}

// Transport moves contiguous byte ranges of one device's domains.
// It serializes requests: the poller and the writer share one connection.
type Transport struct {
	mu      sync.Mutex
	handler interface{ Close() error }
	client  Client
}

// New creates a connected transport.
func New(cfg Config) (*Transport, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus: endpoint required")
	}

	switch strings.ToLower(cfg.Mode) {
	case "", "tcp":
		h := modbus.NewTCPClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("modbus: connect %s: %w", cfg.Endpoint, err)
		}
		return &Transport{handler: h, client: modbus.NewClient(h)}, nil

	case "rtu":
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.Timeout = cfg.Timeout
		h.SlaveId = cfg.UnitID
		h.BaudRate = cfg.BaudRate
		h.DataBits = cfg.DataBits
		h.Parity = cfg.Parity
		h.StopBits = cfg.StopBits
		if err := h.Connect(); err != nil {
			return nil, fmt.Errorf("modbus: open %s: %w", cfg.Endpoint, err)
		}
		return &Transport{handler: h, client: modbus.NewClient(h)}, nil

	default:
		return nil, fmt.Errorf("modbus: unknown mode %q", cfg.Mode)
	}
}

// NewWithClient wraps an existing client. Close is a no-op.
func NewWithClient(c Client) *Transport {
	return &Transport{client: c}
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.handler == nil {
		return nil
	}
	return t.handler.Close()
}

// Geometry reports the write geometry of domain.
func (t *Transport) Geometry(domain string) (Geometry, error) {
	return DomainGeometry(domain)
}

// ReadBlock fills out with the bytes at [start, start+len(out)) of domain.
// Register reads are widened to whole registers; requests above the
// protocol quantity limit are split.
func (t *Transport) ReadBlock(domain string, start uint32, out []byte) error {
	a, ok := areas[domain]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	n := uint32(len(out))
	if n == 0 {
		return nil
	}
	if err := a.check(start, n); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if a.bits {
		// 8 addresses per byte: address ranges stay byte aligned
		raw, err := t.readChunks(a, start*8, n*8)
		if err != nil {
			return err
		}
		copy(out, raw)
		return nil
	}

	first := start / 2
	last := (start + n + 1) / 2
	raw, err := t.readChunks(a, first, last-first)
	if err != nil {
		return err
	}
	skip := start - first*2
	copy(out, raw[skip:skip+n])
	return nil
}

// WriteBlock sends data to [start, start+len(data)) of domain.
// Register writes must cover whole registers.
func (t *Transport) WriteBlock(domain string, start uint32, data []byte) error {
	a, ok := areas[domain]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDomain, domain)
	}
	if !a.writable {
		return fmt.Errorf("%w: %s", ErrReadOnly, domain)
	}
	n := uint32(len(data))
	if n == 0 {
		return nil
	}
	if err := a.check(start, n); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if a.bits {
		return t.writeChunks(a, start*8, n*8, data)
	}
	if start%2 != 0 || n%2 != 0 {
		return fmt.Errorf("%w: bytes [%d,%d)", ErrUnaligned, start, start+n)
	}
	return t.writeChunks(a, start/2, n/2, data)
}

// ---- chunking ----

// bytesFor is the wire byte count of qty addresses.
func (a area) bytesFor(qty uint32) uint32 {
	if a.bits {
		return (qty + 7) / 8
	}
	return qty * 2
}

func (a area) check(start, n uint32) error {
	if start > a.size || n > a.size-start {
		return fmt.Errorf("%w: bytes [%d,%d) of %d", ErrAddressRange, start, uint64(start)+uint64(n), a.size)
	}
	return nil
}

func (t *Transport) readChunks(a area, addr, qty uint32) ([]byte, error) {
	out := make([]byte, 0, a.bytesFor(qty))

	for qty > 0 {
		q := min(qty, a.maxRead)
		raw, err := t.read(a.readFC, uint16(addr), uint16(q))
		if err != nil {
			return nil, fmt.Errorf("modbus: fc%d addr=%d qty=%d: %w", a.readFC, addr, q, err)
		}
		want := a.bytesFor(q)
		if uint32(len(raw)) < want {
			return nil, fmt.Errorf("%w: fc%d addr=%d got=%d want=%d", ErrShortResponse, a.readFC, addr, len(raw), want)
		}
		out = append(out, raw[:want]...)
		addr += q
		qty -= q
	}
	return out, nil
}

func (t *Transport) writeChunks(a area, addr, qty uint32, data []byte) error {
	for qty > 0 {
		q := min(qty, a.maxWrite)
		nb := a.bytesFor(q)
		if err := t.write(a.writeFC, uint16(addr), uint16(q), data[:nb]); err != nil {
			return fmt.Errorf("modbus: fc%d addr=%d qty=%d: %w", a.writeFC, addr, q, err)
		}
		data = data[nb:]
		addr += q
		qty -= q
	}
	return nil
}

func (t *Transport) read(fc uint8, addr, qty uint16) ([]byte, error) {
	switch fc {
	case 1:
		return t.client.ReadCoils(addr, qty)
	case 2:
		return t.client.ReadDiscreteInputs(addr, qty)
	case 3:
		return t.client.ReadHoldingRegisters(addr, qty)
	case 4:
		return t.client.ReadInputRegisters(addr, qty)
	default:
		return nil, fmt.Errorf("modbus: unsupported read function code %d", fc)
	}
}

func (t *Transport) write(fc uint8, addr, qty uint16, data []byte) error {
	var err error
	switch fc {
	case 15:
		_, err = t.client.WriteMultipleCoils(addr, qty, data)
	case 16:
		_, err = t.client.WriteMultipleRegisters(addr, qty, data)
	default:
		err = fmt.Errorf("modbus: unsupported write function code %d", fc)
	}
	return err
}
