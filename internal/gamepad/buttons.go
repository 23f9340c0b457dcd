package gamepad

import "strings"

// CommonButtons is the face and shoulder button bitmask. Any combination may be set.
type CommonButtons uint8

const (
	ButtonA  CommonButtons = 1
	ButtonB  CommonButtons = 2
	ButtonX  CommonButtons = 8
	ButtonY  CommonButtons = 16
	ButtonLB CommonButtons = 64
	ButtonRB CommonButtons = 128

	commonMask = ButtonA | ButtonB | ButtonX | ButtonY | ButtonLB | ButtonRB
)

var commonNames = []struct {
	bit  CommonButtons
	name string
}{
	{ButtonA, "A"}, {ButtonB, "B"}, {ButtonX, "X"}, {ButtonY, "Y"}, {ButtonLB, "LB"}, {ButtonRB, "RB"},
}

// Has reports whether every bit of b is pressed.
func (c CommonButtons) Has(b CommonButtons) bool { return b != 0 && c&b == b }

// Names lists the pressed buttons in fixed order.
func (c CommonButtons) Names() []string {
	var out []string
	for _, n := range commonNames {
		if c.Has(n.bit) {
			out = append(out, n.name)
		}
	}
	return out
}

func (c CommonButtons) String() string { return joinOrNone(c.Names()) }

// MiscButtons is the system and stick-click bitmask.
type MiscButtons uint8

const (
	ButtonView       MiscButtons = 4
	ButtonStart      MiscButtons = 8
	ButtonGuide      MiscButtons = 16
	ButtonLeftStick  MiscButtons = 32
	ButtonRightStick MiscButtons = 64

	miscMask = ButtonView | ButtonStart | ButtonGuide | ButtonLeftStick | ButtonRightStick
)

var miscNames = []struct {
	bit  MiscButtons
	name string
}{
	{ButtonView, "View"}, {ButtonStart, "Start"}, {ButtonGuide, "Guide"},
	{ButtonLeftStick, "LeftStick"}, {ButtonRightStick, "RightStick"},
}

func (m MiscButtons) Has(b MiscButtons) bool { return b != 0 && m&b == b }

func (m MiscButtons) Names() []string {
	var out []string
	for _, n := range miscNames {
		if m.Has(n.bit) {
			out = append(out, n.name)
		}
	}
	return out
}

func (m MiscButtons) String() string { return joinOrNone(m.Names()) }

// Dpad is a single D-pad direction. Diagonals are not reported.
type Dpad uint8

const (
	DpadNone  Dpad = 0
	DpadUp    Dpad = 1
	DpadRight Dpad = 3
	DpadDown  Dpad = 5
	DpadLeft  Dpad = 7
)

// dpadFromCode maps a raw hat code; anything outside the table is no press.
func dpadFromCode(code uint8) Dpad {
	switch d := Dpad(code); d {
	case DpadUp, DpadRight, DpadDown, DpadLeft:
		return d
	default:
		return DpadNone
	}
}

func (d Dpad) String() string {
	switch d {
	case DpadUp:
		return "Up"
	case DpadRight:
		return "Right"
	case DpadDown:
		return "Down"
	case DpadLeft:
		return "Left"
	default:
		return "None"
	}
}

// TriggerButtons reports triggers pulled all the way to their end stop.
type TriggerButtons struct {
	LT bool
	RT bool
}

func (t TriggerButtons) String() string {
	var out []string
	if t.LT {
		out = append(out, "LT")
	}
	if t.RT {
		out = append(out, "RT")
	}
	return joinOrNone(out)
}

// ButtonState groups the independent button categories.
type ButtonState struct {
	Common   CommonButtons
	Dpad     Dpad
	Triggers TriggerButtons
	Misc     MiscButtons
}

// Pressed reports whether anything at all is held.
func (b ButtonState) Pressed() bool {
	return b.Common != 0 || b.Dpad != DpadNone || b.Triggers.LT || b.Triggers.RT || b.Misc != 0
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, "+")
}
