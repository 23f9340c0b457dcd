package gamepad

import (
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Stick is a raw 2D stick position as delivered by the device.
type Stick struct {
	X uint16
	Y uint16
}

// AxisState holds analog readings in device scale.
type AxisState struct {
	Left     Stick
	Right    Stick
	Brake    uint8 // left trigger magnitude
	Throttle uint8 // right trigger magnitude
}

// BatteryLevel is absent until the first battery value decodes.
type BatteryLevel struct {
	Value uint8
	Valid bool
}

// Snapshot is a copy of the decoded controller state at one point in time.
// It is only meaningful while the driver reports a connection.
type Snapshot struct {
	Type    GamepadType
	Buttons ButtonState
	Axes    AxisState
	Battery BatteryLevel
	Debug   bool

	Reports   uint64    // notifications applied since the last reset
	UpdatedAt time.Time // zero until the first report
}

// DeviceInfo is best-effort identification read once after connect.
// A nil field could not be read or was not valid UTF-8.
type DeviceInfo struct {
	Name         *string
	Manufacturer *string
	Firmware     *string
	Serial       *string
}

// Fields returns the present fields in display order.
func (d DeviceInfo) Fields() *orderedmap.OrderedMap[string, string] {
	out := orderedmap.New[string, string]()
	for _, f := range []struct {
		key string
		val *string
	}{
		{"name", d.Name},
		{"manufacturer", d.Manufacturer},
		{"firmware", d.Firmware},
		{"serial", d.Serial},
	} {
		if f.val != nil {
			out.Set(f.key, *f.val)
		}
	}
	return out
}

// Empty reports whether no field could be read.
func (d DeviceInfo) Empty() bool {
	return d.Name == nil && d.Manufacturer == nil && d.Firmware == nil && d.Serial == nil
}
