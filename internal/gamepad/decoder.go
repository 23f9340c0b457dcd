package gamepad

import "fmt"

// FieldGroup names a part of a report that decodes independently.
type FieldGroup string

const (
	GroupSticks   FieldGroup = "sticks"
	GroupTriggers FieldGroup = "triggers"
	GroupLT       FieldGroup = "lt"
	GroupRT       FieldGroup = "rt"
	GroupDpad     FieldGroup = "dpad"
	GroupButtons  FieldGroup = "buttons"
	GroupMisc     FieldGroup = "misc"
	GroupBattery  FieldGroup = "battery"
)

// Sticks is the decoded stick pair of one report.
type Sticks struct {
	Left  Stick
	Right Stick
}

// Triggers is the decoded analog trigger pair of one report.
type Triggers struct {
	Brake    uint8
	Throttle uint8
}

// Report is the delta carried by one notification. A nil group was not
// present in the payload and leaves the snapshot's previous value in place.
type Report struct {
	Sticks   *Sticks
	Triggers *Triggers
	LT       *bool
	RT       *bool
	Dpad     *Dpad
	Common   *CommonButtons
	Misc     *MiscButtons
	Battery  *uint8

	// Short lists the groups skipped because the payload was too short.
	Short []FieldGroup
}

// Decoder turns raw notification payloads of one controller family into
// report deltas. Implementations must not block or perform I/O, and never fail:
// malformed input degrades to missing groups.
type Decoder interface {
	Type() GamepadType

	// Decode handles a HID input report.
	Decode(raw []byte) Report

	// DecodeBattery handles a Battery Level notification.
	DecodeBattery(raw []byte) Report

	// ReportMap is the HID report descriptor the layout was written against, or nil.
	ReportMap() []byte
}

var decoders = map[GamepadType]func() Decoder{
	XboxOne: func() Decoder { return xboxOneDecoder{} },
}

// NewDecoder returns the decoder registered for t.
func NewDecoder(t GamepadType) (Decoder, error) {
	ctor, ok := decoders[t]
	if !ok {
		return nil, fmt.Errorf("no decoder for gamepad type %s", t)
	}
	return ctor(), nil
}

// decodeBatteryLevel is the standard Battery Level (0x2A19) format shared by all families.
func decodeBatteryLevel(raw []byte) Report {
	if len(raw) < 1 {
		return Report{Short: []FieldGroup{GroupBattery}}
	}
	level := raw[0]
	return Report{Battery: &level}
}
