package tinyble

import (
	"github.com/srg/blepad/internal/transport"
	"tinygo.org/x/bluetooth"
)

// sighting is one scan result, reduced to what the transport keeps.
type sighting struct {
	address bluetooth.Address
	adv     transport.Advertisement
}

// radio is the part of the adapter the transport drives.
type radio interface {
	Enable() error
	SetConnectHandler(c func(address string, connected bool))
	Scan(callback func(sighting)) error
	StopScan() error
	Connect(address bluetooth.Address) (peripheral, error)
}

// adapterRadio is a radio backed by a tinygo-bluetooth adapter.
type adapterRadio struct {
	adapter *bluetooth.Adapter
}

func (r adapterRadio) Enable() error { return r.adapter.Enable() }

func (r adapterRadio) SetConnectHandler(c func(address string, connected bool)) {
	r.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		c(device.Address.String(), connected)
	})
}

func (r adapterRadio) Scan(callback func(sighting)) error {
	return r.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		callback(sighting{address: result.Address, adv: fromScanResult(result)})
	})
}

func (r adapterRadio) StopScan() error { return r.adapter.StopScan() }

func (r adapterRadio) Connect(address bluetooth.Address) (peripheral, error) {
	device, err := r.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, err
	}
	return device, nil
}
