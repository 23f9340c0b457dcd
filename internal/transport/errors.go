package transport

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError reports a GATT service or characteristic the peripheral lacks.
type NotFoundError struct {
	Resource string   // "service", "characteristic"
	UUIDs    []string // [serviceUUID] or [serviceUUID, charUUID]
}

func (e *NotFoundError) Error() string {
	if len(e.UUIDs) == 0 {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	if len(e.UUIDs) == 1 {
		return fmt.Sprintf("%s %q not found", e.Resource, e.UUIDs[0])
	}
	return fmt.Sprintf("%s %q not found in service %q", e.Resource, e.UUIDs[len(e.UUIDs)-1], e.UUIDs[0])
}

// ConnectionState names why a link could not be used.
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	NotInitialized   ConnectionState = "not_initialized"
)

// ConnectionError is a link in the wrong state for the requested operation.
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is matches on State alone, so wrapped errors compare equal to the sentinels.
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Connection state sentinels
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrNotInitialized   = &ConnectionError{State: NotInitialized}
)

var (
	ErrTimeout      = errors.New("timeout")
	ErrUnsupported  = errors.New("unsupported")
	ErrBluetoothOff = errors.New("bluetooth is turned off")
	ErrAuthFailed   = errors.New("authentication failed")
)

// backendErrors lists lowercase fragments of go-ble, tinygo and BlueZ error
// messages together with the error they stand for. First match wins.
var backendErrors = []struct {
	fragments []string
	target    error
}{
	{[]string{"is bluetooth turned on", "bluetooth is turned off", "adapter not powered", "org.bluez.error.notready"}, ErrBluetoothOff},
	{[]string{"authentication", "org.bluez.error.rejected"}, ErrAuthFailed},
	{[]string{"device not connected", "disconnected", "org.bluez.error.notconnected"}, ErrNotConnected},
	{[]string{"device already connected", "alreadyconnected"}, ErrAlreadyConnected},
	{[]string{"connection is not initialized", "no adapter"}, ErrNotInitialized},
	{[]string{"timed out", "timeout"}, ErrTimeout},
}

// NormalizeError wraps a backend error with the matching error above so callers
// can use errors.Is. Unknown errors are returned unchanged.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := strings.ToLower(err.Error())
	for _, known := range backendErrors {
		for _, fragment := range known.fragments {
			if strings.Contains(msg, fragment) {
				return fmt.Errorf("%w: %v", known.target, err)
			}
		}
	}
	return err
}
