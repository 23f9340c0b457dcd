package gamepad

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{name: "exact", input: "Xbox Wireless Controller", expected: true},
		{name: "upper case", input: "XBOX WIRELESS CONTROLLER", expected: true},
		{name: "embedded", input: "My xbox wireless controller #2", expected: true},
		{name: "empty", input: "", expected: false},
		{name: "unrelated", input: "Heart Rate Sensor", expected: false},
		{name: "partial", input: "Xbox Wireless", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsSupported(tt.input))
		})
	}
}

func TestIsSupportedEveryAllowListedName(t *testing.T) {
	for _, name := range SupportedNames() {
		assert.True(t, IsSupported("prefix-"+name+"-suffix"), "%q MUST match as a substring", name)
	}
}

func TestDetect(t *testing.T) {
	typ, ok := Detect("Xbox Wireless Controller")
	assert.True(t, ok)
	assert.Equal(t, XboxOne, typ)
	assert.Equal(t, "xbox-one", typ.String())

	typ, ok = Detect("keyboard")
	assert.False(t, ok)
	assert.Equal(t, Unknown, typ)
}

func TestNewDecoder(t *testing.T) {
	d, err := NewDecoder(XboxOne)
	assert.NoError(t, err)
	assert.Equal(t, XboxOne, d.Type())

	_, err = NewDecoder(Unknown)
	assert.ErrorContains(t, err, "no decoder")
}

func TestButtonNames(t *testing.T) {
	assert.Equal(t, "A+Y+RB", (ButtonA | ButtonY | ButtonRB).String())
	assert.Equal(t, "-", CommonButtons(0).String())
	assert.Equal(t, "Start+Guide", (ButtonStart | ButtonGuide).String())
	assert.Equal(t, "LT+RT", TriggerButtons{LT: true, RT: true}.String())
	assert.Equal(t, "Left", DpadLeft.String())
	assert.Equal(t, "None", Dpad(6).String())
	assert.False(t, ButtonState{}.Pressed())
	assert.True(t, ButtonState{Dpad: DpadUp}.Pressed())
}

func TestDeviceInfoFields(t *testing.T) {
	name, serial := "Xbox Wireless Controller", "3033"
	info := DeviceInfo{Name: &name, Serial: &serial}

	fields := info.Fields()
	assert.Equal(t, 2, fields.Len())

	var keys []string
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"name", "serial"}, keys, "fields MUST keep display order and skip absent values")
	assert.False(t, info.Empty())
	assert.True(t, DeviceInfo{}.Empty())
}
