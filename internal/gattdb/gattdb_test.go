package gattdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestNormalizeUUID verifies that NormalizeUUID correctly handles various UUID formats
func TestNormalizeUUID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "16-bit short form", input: "1812", expected: "1812"},
		{name: "16-bit uppercase", input: "2A4D", expected: "2a4d"},
		{name: "16-bit with 0x prefix", input: "0x1812", expected: "1812"},
		{name: "32-bit SIG form", input: "00002a4d", expected: "2a4d"},
		{name: "full SIG UUID with dashes", input: "00001812-0000-1000-8000-00805f9b34fb", expected: "1812"},
		{name: "full SIG UUID without dashes", input: "0000180a00001000800000805f9b34fb", expected: "180a"},
		{name: "UUID with braces", input: "{00002a04-0000-1000-8000-00805F9B34FB}", expected: "2a04"},
		{name: "vendor 128-bit UUID", input: "00000001-5F60-4C4F-9C83-A7953298D40D", expected: "000000015f604c4f9c83a7953298d40d"},
		{name: "not hex", input: "xbox", expected: ""},
		{name: "wrong length", input: "12345", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeUUID(tt.input))
		})
	}
}

func TestVendorUUIDFamily(t *testing.T) {
	assert.Equal(t, "000000015f604c4f9c83a7953298d40d", VendorService)
	assert.Equal(t, "000000025f604c4f9c83a7953298d40d", VendorReportChar)
	assert.Equal(t, "0000000a5f604c4f9c83a7953298d40d", VendorUUID(10))
	assert.True(t, Equal("00000002-5f60-4c4f-9c83-a7953298d40d", VendorReportChar))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal("1812", "00001812-0000-1000-8000-00805f9b34fb"))
	assert.True(t, Equal("0x2A4D", "2a4d"))
	assert.False(t, Equal("2a4d", "2a4b"))
	assert.False(t, Equal("", ""), "empty UUIDs MUST NOT compare equal")
}

func TestFullUUID(t *testing.T) {
	assert.Equal(t, "00001812-0000-1000-8000-00805f9b34fb", FullUUID("1812"))
	assert.Equal(t, "00000002-5f60-4c4f-9c83-a7953298d40d", FullUUID(VendorReportChar))
	assert.Equal(t, "", FullUUID("zz"))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, "Human Interface Device", Lookup("0x1812"))
	assert.Equal(t, "Report", Lookup("00002a4d-0000-1000-8000-00805f9b34fb"))
	assert.Equal(t, "Controller Vendor Report", Lookup(FullUUID(VendorReportChar)))
	assert.Equal(t, "", Lookup("ffff"))
	assert.Equal(t, "", Lookup("2a4c"), "identifiers the driver never touches MUST stay unnamed")
}

func TestLookupNamesEveryIdentifier(t *testing.T) {
	for _, uuid := range []string{
		GenericAccessService, DeviceNameChar, AppearanceChar, PreferredConnParamsChar,
		DeviceInformationService, SerialNumberChar, FirmwareRevisionChar, ManufacturerNameChar,
		BatteryService, BatteryLevelChar,
		HIDService, HIDInformationChar, HIDReportMapChar, HIDReportChar,
		VendorService, VendorReportChar,
	} {
		assert.NotEmpty(t, Lookup(uuid), "%s MUST have a display name", uuid)
	}
}
