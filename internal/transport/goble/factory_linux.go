//go:build linux

package goble

import (
	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/go-ble/ble/linux/hci/cmd"
)

func newPlatformDevice(opts DeviceOptions) (ble.Device, error) {
	dev, err := linux.NewDevice(
		ble.OptDeviceID(opts.HCIDevice),
		ble.OptScanParams(cmd.LESetScanParameters{
			LEScanType:           0x01, // active, so scan responses carry the local name
			LEScanInterval:       scanUnits(opts.ScanInterval),
			LEScanWindow:         scanUnits(opts.ScanWindow),
			OwnAddressType:       0x00,
			ScanningFilterPolicy: 0x00,
		}),
	)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// go-ble's HCI security manager refuses pairing.
const platformPairs = false
