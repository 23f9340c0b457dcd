//go:build !linux && !darwin

package goble

import (
	"fmt"
	"runtime"

	"github.com/go-ble/ble"
	"github.com/srg/blepad/internal/transport"
)

func newPlatformDevice(DeviceOptions) (ble.Device, error) {
	return nil, fmt.Errorf("go-ble on %s: %w", runtime.GOOS, transport.ErrUnsupported)
}

const platformPairs = false
