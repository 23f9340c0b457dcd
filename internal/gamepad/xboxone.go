package gamepad

import "encoding/binary"

// Xbox One (model 1708) Bluetooth input report offsets.
const (
	xboxRightStick = 0  // RX, RY: little-endian uint16
	xboxLeftStick  = 4  // LX, LY: little-endian uint16
	xboxBrake      = 8  // LT magnitude low byte
	xboxThrottle   = 10 // RT magnitude low byte
	xboxDpad       = 12 // hat code in the low nibble
	xboxCommon     = 13
	xboxMisc       = 14

	// A trigger at its end stop reports the 10-bit maximum 0x3FF as (255, 3).
	xboxTriggerMaxLo = 255
	xboxTriggerMaxHi = 3
)

// xboxOneReportMap is the HID report descriptor published by the model 1708 controller.
var xboxOneReportMap = []byte{
	0x05, 0x01, 0x09, 0x05, 0xA1, 0x01, 0x85, 0x01, 0x09, 0x01, 0xA1, 0x00,
	0x09, 0x30, 0x09, 0x31, 0x15, 0x00, 0x27, 0xFF, 0xFF, 0x00, 0x00, 0x95,
	0x02, 0x75, 0x10, 0x81, 0x02, 0xC0, 0x09, 0x01, 0xA1, 0x00, 0x09, 0x32,
	0x09, 0x35, 0x15, 0x00, 0x27, 0xFF, 0xFF, 0x00, 0x00, 0x95, 0x02, 0x75,
	0x10, 0x81, 0x02, 0xC0, 0x05, 0x02, 0x09, 0xC5, 0x15, 0x00, 0x26, 0xFF,
	0x03, 0x95, 0x01, 0x75, 0x0A, 0x81, 0x02, 0x15, 0x00, 0x25, 0x00, 0x75,
	0x06, 0x95, 0x01, 0x81, 0x03, 0x05, 0x01, 0x09, 0x39, 0x15, 0x01, 0x25,
	0x08, 0x35, 0x00, 0x46, 0x3B, 0x01, 0x66, 0x14, 0x00, 0x75, 0x04, 0x95,
	0x01, 0x81, 0x42, 0x75, 0x04, 0x95, 0x01, 0x15, 0x00, 0x25, 0x00, 0x35,
	0x00, 0x45, 0x00, 0x65, 0x00, 0x81, 0x03, 0x05, 0x09, 0x19, 0x01, 0x29,
	0x0F, 0x15, 0x00, 0x25, 0x01, 0x75, 0x01, 0x95, 0x0F, 0x81, 0x02, 0x15,
	0x00, 0x25, 0x00, 0x75, 0x01, 0x95, 0x01, 0x81, 0x03, 0x05, 0x0C, 0x0A,
	0xB2, 0x00, 0x15, 0x00, 0x25, 0x01, 0x95, 0x01, 0x75, 0x01, 0x81, 0x02,
	0x15, 0x00, 0x25, 0x00, 0x75, 0x07, 0x95, 0x01, 0x81, 0x03, 0x05, 0x0F,
	0x09, 0x21, 0x85, 0x03, 0xA1, 0x02, 0x09, 0x97, 0x15, 0x00, 0x25, 0x01,
	0x75, 0x04, 0x95, 0x01, 0x91, 0x02, 0x15, 0x00, 0x25, 0x00, 0x75, 0x04,
	0x95, 0x01, 0x91, 0x03, 0x09, 0x70, 0x15, 0x00, 0x25, 0x64, 0x75, 0x08,
	0x95, 0x04, 0x91, 0x02, 0x09, 0x50, 0x66, 0x01, 0x10, 0x55, 0x0E, 0x15,
	0x00, 0x26, 0xFF, 0x00, 0x75, 0x08, 0x95, 0x01, 0x91, 0x02, 0x09, 0xA7,
	0x15, 0x00, 0x26, 0xFF, 0x00, 0x75, 0x08, 0x95, 0x01, 0x91, 0x02, 0x65,
	0x00, 0x55, 0x00, 0x09, 0x7C, 0x15, 0x00, 0x26, 0xFF, 0x00, 0x75, 0x08,
	0x95, 0x01, 0x91, 0x02, 0xC0, 0xC0,
}

type xboxOneDecoder struct{}

func (xboxOneDecoder) Type() GamepadType { return XboxOne }

func (xboxOneDecoder) ReportMap() []byte {
	out := make([]byte, len(xboxOneReportMap))
	copy(out, xboxOneReportMap)
	return out
}

func (xboxOneDecoder) DecodeBattery(raw []byte) Report { return decodeBatteryLevel(raw) }

func (xboxOneDecoder) Decode(raw []byte) Report {
	var r Report
	n := len(raw)

	if n >= xboxLeftStick+4 {
		r.Sticks = &Sticks{
			Right: Stick{
				X: binary.LittleEndian.Uint16(raw[xboxRightStick:]),
				Y: binary.LittleEndian.Uint16(raw[xboxRightStick+2:]),
			},
			Left: Stick{
				X: binary.LittleEndian.Uint16(raw[xboxLeftStick:]),
				Y: binary.LittleEndian.Uint16(raw[xboxLeftStick+2:]),
			},
		}
	} else {
		r.Short = append(r.Short, GroupSticks)
	}

	if n > xboxThrottle {
		r.Triggers = &Triggers{Brake: raw[xboxBrake], Throttle: raw[xboxThrottle]}
	} else {
		r.Short = append(r.Short, GroupTriggers)
	}

	if n >= xboxBrake+2 {
		lt := triggerAtMax(raw[xboxBrake], raw[xboxBrake+1])
		r.LT = &lt
	} else {
		r.Short = append(r.Short, GroupLT)
	}

	if n >= xboxThrottle+2 {
		rt := triggerAtMax(raw[xboxThrottle], raw[xboxThrottle+1])
		r.RT = &rt
	} else {
		r.Short = append(r.Short, GroupRT)
	}

	if n > xboxDpad {
		d := dpadFromCode(raw[xboxDpad] & 0x0F)
		r.Dpad = &d
	} else {
		r.Short = append(r.Short, GroupDpad)
	}

	if n > xboxCommon {
		c := CommonButtons(raw[xboxCommon]) & commonMask
		r.Common = &c
	} else {
		r.Short = append(r.Short, GroupButtons)
	}

	if n > xboxMisc {
		m := MiscButtons(raw[xboxMisc]) & miscMask
		r.Misc = &m
	} else {
		r.Short = append(r.Short, GroupMisc)
	}

	return r
}

func triggerAtMax(lo, hi byte) bool {
	return lo == xboxTriggerMaxLo && hi == xboxTriggerMaxHi
}
