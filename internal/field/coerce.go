// internal/field/coerce.go
package field

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tamzrod/modbus-blockio/internal/codec"
)

var ErrRange = errors.New("field: value out of range")

// Coerce converts a loosely typed value (YAML scalar, CLI argument, Go
// number) into the exact Go type the codec of t expects.
func Coerce(t codec.Type, v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("field: nil value for %s", t)
	}

	switch t {
	case codec.TypeBool:
		return toBool(v)

	case codec.TypeString:
		switch s := v.(type) {
		case string:
			return s, nil
		case []byte:
			return string(s), nil
		}
		return fmt.Sprint(v), nil

	case codec.TypeBytes:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			// hex, optionally 0x-prefixed
			raw, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(b, " ", ""), "0x"))
			if err != nil {
				return nil, fmt.Errorf("field: bytes value: %w", err)
			}
			return raw, nil
		}
		return nil, fmt.Errorf("field: cannot use %T as bytes", v)

	case codec.TypeFloat32:
		f, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return nil, fmt.Errorf("%w: %v for float32", ErrRange, f)
		}
		return float32(f), nil

	case codec.TypeFloat64:
		return toFloat(v)
	}

	if isUnsigned(t) {
		u, err := toUint(v)
		if err != nil {
			return nil, err
		}
		switch t {
		case codec.TypeUint8:
			if u > math.MaxUint8 {
				return nil, fmt.Errorf("%w: %d for uint8", ErrRange, u)
			}
			return uint8(u), nil
		case codec.TypeUint16:
			if u > math.MaxUint16 {
				return nil, fmt.Errorf("%w: %d for uint16", ErrRange, u)
			}
			return uint16(u), nil
		case codec.TypeUint32:
			if u > math.MaxUint32 {
				return nil, fmt.Errorf("%w: %d for uint32", ErrRange, u)
			}
			return uint32(u), nil
		default:
			return u, nil
		}
	}

	i, err := toInt(v)
	if err != nil {
		return nil, err
	}
	switch t {
	case codec.TypeInt8:
		if i < math.MinInt8 || i > math.MaxInt8 {
			return nil, fmt.Errorf("%w: %d for int8", ErrRange, i)
		}
		return int8(i), nil
	case codec.TypeInt16:
		if i < math.MinInt16 || i > math.MaxInt16 {
			return nil, fmt.Errorf("%w: %d for int16", ErrRange, i)
		}
		return int16(i), nil
	case codec.TypeInt32:
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, fmt.Errorf("%w: %d for int32", ErrRange, i)
		}
		return int32(i), nil
	case codec.TypeInt64:
		return i, nil
	}

	return nil, fmt.Errorf("field: cannot coerce to %s", t)
}

func isUnsigned(t codec.Type) bool {
	switch t {
	case codec.TypeUint8, codec.TypeUint16, codec.TypeUint32, codec.TypeUint64:
		return true
	}
	return false
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	i, err := toInt(v)
	if err != nil {
		return false, err
	}
	return i != 0, nil
}

func toInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrRange, n)
		}
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d", ErrRange, n)
		}
		return int64(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 0, 64)
	}
	return 0, fmt.Errorf("field: cannot use %T as integer", v)
}

func toUint(v any) (uint64, error) {
	switch n := v.(type) {
	case uint:
		return uint64(n), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(n), 0, 64)
	}
	i, err := toInt(v)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrRange, i)
	}
	return uint64(i), nil
}

func floatToInt(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("%w: %v is not an integer", ErrRange, f)
	}
	return int64(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case uint:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	i, err := toInt(v)
	if err != nil {
		return 0, err
	}
	return float64(i), nil
}
