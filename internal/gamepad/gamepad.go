// Package gamepad models a BLE HID gamepad: which controller families are
// supported, how their input reports decode, and the shared snapshot of the
// latest decoded state.
//
// Adding a controller family means adding an entry to the allow-list below and
// registering a Decoder for its GamepadType. The connection lifecycle in
// internal/controller never changes for a new family.
package gamepad

import (
	"fmt"
	"strings"
)

// GamepadType identifies the report layout in use for a connection.
//
//nolint:revive // gamepad.GamepadType reads better than gamepad.Type at call sites
type GamepadType int

const (
	Unknown GamepadType = iota
	XboxOne
)

func (t GamepadType) String() string {
	switch t {
	case XboxOne:
		return "xbox-one"
	case Unknown:
		return "unknown"
	default:
		return fmt.Sprintf("gamepad(%d)", int(t))
	}
}

// supported is the allow-list of advertised names, matched as lowercase substrings.
var supported = []struct {
	name string
	typ  GamepadType
}{
	{name: "xbox wireless controller", typ: XboxOne},
}

// Detect returns the GamepadType for an advertised name.
func Detect(name string) (GamepadType, bool) {
	lower := strings.ToLower(name)
	for _, s := range supported {
		if strings.Contains(lower, s.name) {
			return s.typ, true
		}
	}
	return Unknown, false
}

// IsSupported reports whether name contains, case-insensitively, any allow-listed controller name.
func IsSupported(name string) bool {
	_, ok := Detect(name)
	return ok
}

// SupportedNames lists the allow-listed names.
func SupportedNames() []string {
	names := make([]string, 0, len(supported))
	for _, s := range supported {
		names = append(names, s.name)
	}
	return names
}
