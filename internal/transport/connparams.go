package transport

import (
	"encoding/binary"
	"fmt"
	"time"
)

const (
	connIntervalUnit       = 1250 * time.Microsecond
	supervisionTimeoutUnit = 10 * time.Millisecond

	// connParamUnset marks a Peripheral Preferred Connection Parameters field
	// the peripheral leaves to the central.
	connParamUnset = 0xFFFF
)

// ConnParams is link timing as published in the Peripheral Preferred
// Connection Parameters characteristic (0x2A04). Raw fields keep the
// on-air units so backends can hand them to the controller unchanged.
type ConnParams struct {
	MinIntervalUnits        uint16 // 1.25 ms units
	MaxIntervalUnits        uint16 // 1.25 ms units
	Latency                 uint16 // connection events
	SupervisionTimeoutUnits uint16 // 10 ms units
}

// ParseConnParams decodes the 8-byte little-endian 0x2A04 value.
func ParseConnParams(raw []byte) (ConnParams, error) {
	if len(raw) < 8 {
		return ConnParams{}, fmt.Errorf("preferred connection parameters: need 8 bytes, got %d", len(raw))
	}

	p := ConnParams{
		MinIntervalUnits:        binary.LittleEndian.Uint16(raw[0:2]),
		MaxIntervalUnits:        binary.LittleEndian.Uint16(raw[2:4]),
		Latency:                 binary.LittleEndian.Uint16(raw[4:6]),
		SupervisionTimeoutUnits: binary.LittleEndian.Uint16(raw[6:8]),
	}
	if p.MinIntervalUnits != connParamUnset && p.MaxIntervalUnits != connParamUnset &&
		p.MinIntervalUnits > p.MaxIntervalUnits {
		return ConnParams{}, fmt.Errorf("preferred connection parameters: min interval %d exceeds max %d",
			p.MinIntervalUnits, p.MaxIntervalUnits)
	}
	return p, nil
}

// MinInterval returns the minimum connection interval, or zero when unset.
func (p ConnParams) MinInterval() time.Duration {
	return unitsToDuration(p.MinIntervalUnits, connIntervalUnit)
}

// MaxInterval returns the maximum connection interval, or zero when unset.
func (p ConnParams) MaxInterval() time.Duration {
	return unitsToDuration(p.MaxIntervalUnits, connIntervalUnit)
}

// SupervisionTimeout returns the link supervision timeout, or zero when unset.
func (p ConnParams) SupervisionTimeout() time.Duration {
	return unitsToDuration(p.SupervisionTimeoutUnits, supervisionTimeoutUnit)
}

// IsZero reports whether every field is left to the central.
func (p ConnParams) IsZero() bool {
	return p.MinIntervalUnits == connParamUnset && p.MaxIntervalUnits == connParamUnset &&
		p.SupervisionTimeoutUnits == connParamUnset
}

func (p ConnParams) String() string {
	return fmt.Sprintf("interval=%v..%v latency=%d timeout=%v",
		p.MinInterval(), p.MaxInterval(), p.Latency, p.SupervisionTimeout())
}

func unitsToDuration(v uint16, unit time.Duration) time.Duration {
	if v == connParamUnset {
		return 0
	}
	return time.Duration(v) * unit
}
