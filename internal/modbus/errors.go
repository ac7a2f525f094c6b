// internal/modbus/errors.go
package modbus

import (
	"errors"

	"github.com/goburrow/modbus"
)

var (
	ErrUnknownDomain = errors.New("modbus: unknown domain")
	ErrReadOnly      = errors.New("modbus: domain is read-only")
	ErrUnaligned     = errors.New("modbus: write not aligned to whole registers")
	ErrAddressRange  = errors.New("modbus: address outside domain")
	ErrShortResponse = errors.New("modbus: short response")
)

// ErrorCode extracts a best-effort uint16 code from a transfer error.
// Device exceptions yield their exception code; anything else is 1.
func ErrorCode(err error) uint16 {
	if err == nil {
		return 0
	}

	var mbErr *modbus.ModbusError
	if errors.As(err, &mbErr) {
		return uint16(mbErr.ExceptionCode)
	}

	type coder interface{ Code() uint16 }
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return 1
}
