package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/srg/blepad/internal/controller"
	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/transport"
)

// Command-level errors
var (
	// ErrNoController means a scan finished without hearing a supported controller.
	ErrNoController = errors.New("no compatible controller found")

	// ErrConnectionLost means the controller dropped the link while watching and
	// reconnecting was disabled.
	ErrConnectionLost = errors.New("connection lost")
)

// FormatUserError turns driver errors into one-line hints for the terminal.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNoController):
		return fmt.Sprintf("%v (looking for: %s); is the controller on and in pairing mode?",
			err, strings.Join(gamepad.SupportedNames(), ", "))
	case errors.Is(err, transport.ErrBluetoothOff):
		return "Bluetooth is turned off or unavailable; enable the adapter and try again"
	case errors.Is(err, controller.ErrPairingFailed) && errors.Is(err, transport.ErrUnsupported):
		return fmt.Sprintf("%v; use --backend tinyble, or --platform-pairing to accept the system prompt", err)
	case errors.Is(err, transport.ErrUnsupported):
		return fmt.Sprintf("%v; try another --backend", err)
	case errors.Is(err, controller.ErrPairingFailed):
		return fmt.Sprintf("%v; check the pairing passkey and that the controller is in pairing mode", err)
	case errors.Is(err, controller.ErrGATTFailed):
		return fmt.Sprintf("%v; the device does not expose a known gamepad report layout", err)
	case errors.Is(err, ErrConnectionLost):
		return "controller disconnected"
	default:
		return err.Error()
	}
}
