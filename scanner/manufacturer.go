package scanner

import (
	"encoding/binary"
	"fmt"
)

// UnknownCompanyID means the advertisement carried no usable manufacturer data.
const UnknownCompanyID uint16 = 0xFFFF

// knownCompanies maps Bluetooth SIG company identifiers seen around gamepads
// to display names.
var knownCompanies = map[uint16]string{
	0x0006: "Microsoft",
	0x004C: "Apple",
	0x0075: "Samsung",
	0x00E0: "Google",
	0x012D: "Sony",
	0x0553: "Nintendo",
}

// Manufacturer is the vendor prefix of an advertisement's manufacturer data.
type Manufacturer struct {
	CompanyID uint16
	Payload   []byte
}

// Name returns the company name, or the hex identifier when it is not known.
func (m Manufacturer) Name() string {
	if name, ok := knownCompanies[m.CompanyID]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", m.CompanyID)
}

// ParseManufacturerData splits raw manufacturer data into the little-endian
// company identifier and the vendor payload.
func ParseManufacturerData(raw []byte) (Manufacturer, error) {
	if len(raw) < 2 {
		return Manufacturer{CompanyID: UnknownCompanyID}, fmt.Errorf("manufacturer data too short: %d bytes", len(raw))
	}
	return Manufacturer{
		CompanyID: binary.LittleEndian.Uint16(raw[:2]),
		Payload:   append([]byte(nil), raw[2:]...),
	}, nil
}
