//go:build darwin

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
)

// CoreBluetooth picks its own scan timing; interval and window are ignored.
func newPlatformDevice(DeviceOptions) (ble.Device, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// CoreBluetooth pairs on demand when an encrypted attribute is accessed.
const platformPairs = true
