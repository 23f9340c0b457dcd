// Package gattdb holds the well-known GATT identifiers the gamepad driver depends on
// and the UUID normalization used to compare them across BLE backends.
package gattdb

import (
	"fmt"
	"strings"
)

// Bluetooth SIG assigned numbers, in normalized (short, lowercase) form.
const (
	GenericAccessService    = "1800"
	DeviceNameChar          = "2a00"
	AppearanceChar          = "2a01"
	PreferredConnParamsChar = "2a04"

	DeviceInformationService = "180a"
	SerialNumberChar         = "2a25"
	FirmwareRevisionChar     = "2a26"
	ManufacturerNameChar     = "2a29"

	BatteryService   = "180f"
	BatteryLevelChar = "2a19"

	HIDService         = "1812"
	HIDInformationChar = "2a4a"
	HIDReportMapChar   = "2a4b"
	HIDReportChar      = "2a4d"
)

// sigBaseSuffix is the Bluetooth SIG base UUID tail (xxxxxxxx-0000-1000-8000-00805f9b34fb).
const sigBaseSuffix = "00001000800000805f9b34fb"

// vendorSuffix is the tail shared by the controller-specific 128-bit UUID family
// 0000000X-5F60-4C4F-9C83-A7953298D40D.
const vendorSuffix = "5f604c4f9c83a7953298d40d"

// VendorUUID returns member n of the controller-specific UUID family in normalized form.
func VendorUUID(n uint8) string {
	return fmt.Sprintf("%08x", uint32(n)) + vendorSuffix
}

// Vendor layout members used as a fallback when the HID service is not exposed.
var (
	VendorService    = VendorUUID(1)
	VendorReportChar = VendorUUID(2)
)

var knownNames = map[string]string{
	GenericAccessService:     "Generic Access",
	DeviceNameChar:           "Device Name",
	AppearanceChar:           "Appearance",
	PreferredConnParamsChar:  "Peripheral Preferred Connection Parameters",
	DeviceInformationService: "Device Information",
	SerialNumberChar:         "Serial Number String",
	FirmwareRevisionChar:     "Firmware Revision String",
	ManufacturerNameChar:     "Manufacturer Name String",
	BatteryService:           "Battery",
	BatteryLevelChar:         "Battery Level",
	HIDService:               "Human Interface Device",
	HIDInformationChar:       "HID Information",
	HIDReportMapChar:         "Report Map",
	HIDReportChar:            "Report",
	VendorService:            "Controller Vendor Service",
	VendorReportChar:         "Controller Vendor Report",
}

// Lookup returns the human readable name of a known UUID, or "" when unknown.
func Lookup(uuid string) string {
	return knownNames[NormalizeUUID(uuid)]
}

// NormalizeUUID converts a UUID string to the internal format: lowercase, no dashes,
// no braces and no 0x prefix. SIG-based 128-bit UUIDs are reduced to their 16-bit form.
// Returns "" for strings that are not hexadecimal UUIDs.
func NormalizeUUID(uuid string) string {
	s := strings.ToLower(strings.TrimSpace(uuid))
	s = strings.Trim(s, "{}")
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, "-", "")

	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return ""
		}
	}

	switch len(s) {
	case 4:
		return s
	case 8:
		if strings.HasPrefix(s, "0000") {
			return s[4:]
		}
		return s
	case 32:
		if strings.HasSuffix(s, sigBaseSuffix) {
			if strings.HasPrefix(s, "0000") {
				return s[4:8]
			}
			return s[:8]
		}
		return s
	default:
		return ""
	}
}

// NormalizeUUIDs normalizes every UUID in the slice.
func NormalizeUUIDs(uuids []string) []string {
	out := make([]string, len(uuids))
	for i, u := range uuids {
		out[i] = NormalizeUUID(u)
	}
	return out
}

// Equal reports whether two UUID strings name the same attribute.
func Equal(a, b string) bool {
	na := NormalizeUUID(a)
	return na != "" && na == NormalizeUUID(b)
}

// FullUUID expands a normalized UUID into the dashed 128-bit form expected by
// backends that only parse full UUIDs.
func FullUUID(uuid string) string {
	s := NormalizeUUID(uuid)
	switch len(s) {
	case 4:
		s = "0000" + s + sigBaseSuffix
	case 8:
		s = s + sigBaseSuffix
	case 32:
	default:
		return ""
	}
	return s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32]
}
