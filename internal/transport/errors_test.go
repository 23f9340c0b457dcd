package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		expected string
	}{
		{name: "no uuids", err: &NotFoundError{Resource: "service"}, expected: "service not found"},
		{name: "service", err: &NotFoundError{Resource: "service", UUIDs: []string{"1812"}}, expected: `service "1812" not found`},
		{
			name:     "characteristic in service",
			err:      &NotFoundError{Resource: "characteristic", UUIDs: []string{"1812", "2a4d"}},
			expected: `characteristic "2a4d" not found in service "1812"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestConnectionErrorIs(t *testing.T) {
	err := &ConnectionError{State: NotConnected, Msg: "link dropped"}
	assert.True(t, errors.Is(err, ErrNotConnected))
	assert.False(t, errors.Is(err, ErrAlreadyConnected))
	assert.Equal(t, "not_connected: link dropped", err.Error())
	assert.Equal(t, "already_connected", ErrAlreadyConnected.Error())

	var nilErr *ConnectionError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.False(t, nilErr.Is(ErrNotConnected))
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		name   string
		input  error
		target error
	}{
		{name: "darwin powered off", input: errors.New("central manager has invalid state: have=4 want=5: is Bluetooth turned on?"), target: ErrBluetoothOff},
		{name: "bluez auth failed", input: errors.New("org.bluez.Error.AuthenticationFailed"), target: ErrAuthFailed},
		{name: "not connected", input: errors.New("Device Not Connected"), target: ErrNotConnected},
		{name: "disconnected", input: errors.New("peripheral disconnected"), target: ErrNotConnected},
		{name: "already connected", input: errors.New("device already connected"), target: ErrAlreadyConnected},
		{name: "not initialized", input: errors.New("connection is not initialized"), target: ErrNotInitialized},
		{name: "timeout", input: errors.New("operation timed out"), target: ErrTimeout},
		{name: "bluez not ready", input: errors.New("org.bluez.Error.NotReady: Resource Not Ready"), target: ErrBluetoothOff},
		{name: "bluez rejected", input: errors.New("org.bluez.Error.Rejected"), target: ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NormalizeError(tt.input)
			assert.ErrorIs(t, err, tt.target)
			assert.Contains(t, err.Error(), tt.input.Error(), "normalized error MUST keep the original message")
		})
	}

	assert.NoError(t, NormalizeError(nil))

	other := errors.New("something else")
	assert.Same(t, other, NormalizeError(other))
}
