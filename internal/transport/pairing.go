package transport

import "fmt"

// PairingPolicy answers the pairing challenges a peripheral raises.
//
// The gamepad accepts a fixed passkey: the central supplies it when asked,
// and confirms a displayed value only if it equals the same constant.
type PairingPolicy struct {
	Passkey uint32

	// PlatformPairing lets a backend without a pairing agent leave pairing to
	// the operating system prompt. The passkey is then not enforced.
	PlatformPairing bool
}

// RequestPasskey returns the passkey to enter on the central side.
func (p PairingPolicy) RequestPasskey() uint32 {
	return p.Passkey
}

// ConfirmPasskey reports whether a numeric-comparison value is acceptable.
func (p PairingPolicy) ConfirmPasskey(v uint32) bool {
	return v == p.Passkey
}

// ConfirmPasskeyString is ConfirmPasskey for stacks that deliver the challenge as text.
func (p PairingPolicy) ConfirmPasskeyString(s string) bool {
	return s == p.String()
}

// String renders the passkey the way pairing UIs show it: six zero-padded digits.
func (p PairingPolicy) String() string {
	return fmt.Sprintf("%06d", p.Passkey)
}
