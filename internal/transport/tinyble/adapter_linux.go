//go:build linux

package tinyble

import (
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/transport/bluez"
	"tinygo.org/x/bluetooth"
)

// On Linux the adapter is a BlueZ one and pairing goes through a BlueZ agent.
func platformAdapter(opts Options, logger *logrus.Logger) (*bluetooth.Adapter, pairer, error) {
	name := opts.Adapter
	if name == "" {
		name = "hci0"
	}
	p, err := bluez.NewSystemPairer(name, logger)
	if err != nil {
		return nil, nil, err
	}
	return bluetooth.NewAdapter(name), p, nil
}
