// Package scanner surveys nearby BLE devices and marks the ones the driver can use.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/transport"
)

// ProgressCallback is called when the scan phase changes
type ProgressCallback func(phase string)

// Device is one peripheral heard during a survey.
type Device struct {
	Name        string
	Address     string
	RSSI        int
	Connectable bool
	Services    []string
	Type        gamepad.GamepadType
	// Vendor is the manufacturer data company name, empty when none was advertised.
	Vendor    string
	Sightings int
	LastSeen  time.Time
}

// Supported reports whether the driver would connect to this device.
func (d Device) Supported() bool {
	return d.Type != gamepad.Unknown
}

// ScanOptions configures scanning behavior
type ScanOptions struct {
	Duration        time.Duration
	Interval        time.Duration
	Window          time.Duration
	AllowDuplicates bool
	SupportedOnly   bool
	BlockList       []string
}

// DefaultScanOptions returns default scanning options
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration: 10 * time.Second,
		Interval: 100 * time.Millisecond,
		Window:   99 * time.Millisecond,
	}
}

// Scanner handles BLE device discovery
type Scanner struct {
	transport transport.Transport
	logger    *logrus.Logger
	now       func() time.Time
}

// NewScanner creates a new BLE scanner
func NewScanner(t transport.Transport, logger *logrus.Logger) (*Scanner, error) {
	if t == nil {
		return nil, fmt.Errorf("scanner requires a transport")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{transport: t, logger: logger, now: time.Now}, nil
}

// Scan listens for opts.Duration and returns what it heard, strongest signal first.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions, progressCallback ProgressCallback) ([]Device, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}
	if progressCallback == nil {
		progressCallback = func(string) {} // No-op callback
	}

	devices := hashmap.New[string, *Device]()

	s.logger.WithField("duration", opts.Duration).Info("Starting BLE scan...")
	progressCallback("Scanning")

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	_, err := s.transport.Scan(scanCtx, transport.ScanOptions{
		Interval:        opts.Interval,
		Window:          opts.Window,
		AllowDuplicates: opts.AllowDuplicates,
		Observe: func(adv transport.Advertisement) {
			s.handleAdvertisement(devices, adv, opts)
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", devices.Len()).Info("BLE scan completed")
	progressCallback("Processing results")

	list := make([]Device, 0, devices.Len())
	devices.Range(func(_ string, d *Device) bool {
		if !opts.SupportedOnly || d.Supported() {
			list = append(list, *d)
		}
		return true
	})
	sort.Slice(list, func(i, j int) bool {
		if list[i].RSSI != list[j].RSSI {
			return list[i].RSSI > list[j].RSSI
		}
		return list[i].Address < list[j].Address
	})
	return list, nil
}

// handleAdvertisement updates existing or adds a new device
func (s *Scanner) handleAdvertisement(devices *hashmap.Map[string, *Device], adv transport.Advertisement, opts *ScanOptions) {
	for _, blocked := range opts.BlockList {
		if adv.Address == blocked {
			return
		}
	}

	dev, existing := devices.GetOrInsert(adv.Address, &Device{Address: adv.Address})
	dev.Sightings++
	dev.RSSI = adv.RSSI
	dev.Connectable = adv.Connectable
	dev.LastSeen = s.now()
	if len(adv.Services) > 0 {
		dev.Services = adv.Services
	}
	if len(adv.ManufacturerData) > 0 {
		if m, err := ParseManufacturerData(adv.ManufacturerData); err == nil {
			dev.Vendor = m.Name()
		} else {
			s.logger.WithFields(logrus.Fields{
				"address": adv.Address,
				"error":   err,
			}).Debug("Ignoring malformed manufacturer data")
		}
	}
	if adv.Name != "" && adv.Name != dev.Name {
		dev.Name = adv.Name
		dev.Type, _ = gamepad.Detect(adv.Name)
	}

	if !existing {
		s.logger.WithFields(logrus.Fields{
			"device":    dev.Name,
			"address":   dev.Address,
			"rssi":      dev.RSSI,
			"supported": dev.Supported(),
		}).Info("Discovered new device")
	}
}
