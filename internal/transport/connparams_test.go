package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnParams(t *testing.T) {
	// min 6 (7.5ms), max 12 (15ms), latency 0, timeout 100 (1s)
	p, err := ParseConnParams([]byte{0x06, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x64, 0x00})
	require.NoError(t, err)

	assert.Equal(t, uint16(6), p.MinIntervalUnits)
	assert.Equal(t, uint16(12), p.MaxIntervalUnits)
	assert.Equal(t, 7500*time.Microsecond, p.MinInterval())
	assert.Equal(t, 15*time.Millisecond, p.MaxInterval())
	assert.Equal(t, uint16(0), p.Latency)
	assert.Equal(t, time.Second, p.SupervisionTimeout())
	assert.False(t, p.IsZero())
	assert.Equal(t, "interval=7.5ms..15ms latency=0 timeout=1s", p.String())
}

func TestParseConnParamsUnset(t *testing.T) {
	p, err := ParseConnParams([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00, 0xFF, 0xFF})
	require.NoError(t, err)

	assert.True(t, p.IsZero())
	assert.Zero(t, p.MinInterval())
	assert.Zero(t, p.SupervisionTimeout())
}

func TestParseConnParamsInvalid(t *testing.T) {
	_, err := ParseConnParams([]byte{0x06, 0x00, 0x0C})
	assert.ErrorContains(t, err, "need 8 bytes")

	_, err = ParseConnParams([]byte{0x20, 0x00, 0x10, 0x00, 0x00, 0x00, 0x64, 0x00})
	assert.ErrorContains(t, err, "exceeds max")
}

func TestPairingPolicy(t *testing.T) {
	p := PairingPolicy{Passkey: 1234}

	assert.Equal(t, uint32(1234), p.RequestPasskey())
	assert.True(t, p.ConfirmPasskey(1234))
	assert.False(t, p.ConfirmPasskey(4321), "a different challenge MUST be rejected")
	assert.Equal(t, "001234", p.String())
	assert.True(t, p.ConfirmPasskeyString("001234"))
	assert.False(t, p.ConfirmPasskeyString("1234"))
}
