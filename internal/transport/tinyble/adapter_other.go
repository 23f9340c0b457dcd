//go:build !linux

package tinyble

import (
	"github.com/sirupsen/logrus"
	"tinygo.org/x/bluetooth"
)

func platformAdapter(_ Options, _ *logrus.Logger) (*bluetooth.Adapter, pairer, error) {
	return bluetooth.DefaultAdapter, nil, nil
}
