package goble

import (
	"time"

	"github.com/go-ble/ble"
)

// DeviceOptions configures the HCI device created by DeviceFactory.
type DeviceOptions struct {
	HCIDevice    int
	ScanInterval time.Duration
	ScanWindow   time.Duration
}

// DeviceFactory creates ble.Device instances (can be overridden in tests)
//
//nolint:gochecknoglobals // swapped by tests
var DeviceFactory = func(opts DeviceOptions) (ble.Device, error) {
	return newPlatformDevice(opts)
}

const (
	scanUnit        = 625 * time.Microsecond
	minScanUnits    = 0x0004
	maxScanUnits    = 0x4000
	defaultScanUnit = 0x0010
)

// scanUnits converts a duration to HCI scan interval/window units, clamped to the legal range.
func scanUnits(d time.Duration) uint16 {
	if d <= 0 {
		return defaultScanUnit
	}
	u := d / scanUnit
	switch {
	case u < minScanUnits:
		return minScanUnits
	case u > maxScanUnits:
		return maxScanUnits
	default:
		return uint16(u)
	}
}
