// Package goble implements transport.Transport on top of github.com/go-ble/ble.
package goble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/transport"
)

// scanDevice is the part of ble.Device the transport uses directly.
type scanDevice interface {
	Scan(ctx context.Context, allowDup bool, h ble.AdvHandler) error
	Stop() error
}

// gattClient is the part of ble.Client a link uses.
type gattClient interface {
	DiscoverProfile(force bool) (*ble.Profile, error)
	ReadCharacteristic(c *ble.Characteristic) ([]byte, error)
	Subscribe(c *ble.Characteristic, ind bool, h ble.NotificationHandler) error
	CancelConnection() error
	Disconnected() <-chan struct{}
}

// advertisement is the part of ble.Advertisement the scanner reads.
type advertisement interface {
	LocalName() string
	Addr() ble.Addr
	RSSI() int
	Connectable() bool
	Services() []ble.UUID
	ManufacturerData() []byte
}

// Transport is a go-ble central.
type Transport struct {
	dev    scanDevice
	dial   func(ctx context.Context, address string) (gattClient, error)
	logger *logrus.Logger
}

// New opens the platform BLE device through DeviceFactory.
func New(opts DeviceOptions, logger *logrus.Logger) (*Transport, error) {
	dev, err := DeviceFactory(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", transport.NormalizeError(err))
	}
	dial := func(ctx context.Context, address string) (gattClient, error) {
		return dev.Dial(ctx, ble.NewAddr(address))
	}
	return newTransport(dev, dial, logger), nil
}

func newTransport(dev scanDevice, dial func(context.Context, string) (gattClient, error), logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{dev: dev, dial: dial, logger: logger}
}

// Scan runs until the first advertisement whose name matches, or until ctx is done.
func (t *Transport) Scan(ctx context.Context, opts transport.ScanOptions, match transport.NameFilter) (*transport.Advertisement, error) {
	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := newScan(opts, match, t.logger)
	err := t.dev.Scan(scanCtx, opts.AllowDuplicates, func(a ble.Advertisement) {
		if s.observe(a) {
			cancel()
		}
	})

	if adv := s.found.Load(); adv != nil {
		return adv, nil
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", transport.NormalizeError(err))
	}
	t.logger.WithField("devices", s.seen.Len()).Debug("Scan finished without a match")
	return nil, nil
}

// Connect dials the peripheral and discovers its GATT profile.
func (t *Transport) Connect(ctx context.Context, address string) (transport.Link, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("device address is empty")
	}

	t.logger.WithField("address", address).Debug("Dialing BLE device...")
	client, err := t.dial(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, transport.NormalizeError(err))
	}

	t.logger.WithField("address", address).Debug("Discovering services and characteristics...")
	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			t.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection during profile discovery failure")
		}
		return nil, fmt.Errorf("failed to discover profile: %w", transport.NormalizeError(err))
	}

	t.logger.WithFields(logrus.Fields{
		"address":  address,
		"services": len(profile.Services),
	}).Debug("Profile discovered successfully")

	return newLink(address, client, profile, t.logger), nil
}

func (t *Transport) Close() error {
	return t.dev.Stop()
}

// scan is the state of one Scan call.
type scan struct {
	opts   transport.ScanOptions
	match  transport.NameFilter
	logger *logrus.Logger
	seen   *hashmap.Map[string, int] // sightings per address|name
	found  atomic.Pointer[transport.Advertisement]
}

func newScan(opts transport.ScanOptions, match transport.NameFilter, logger *logrus.Logger) *scan {
	return &scan{opts: opts, match: match, logger: logger, seen: hashmap.New[string, int]()}
}

// observe handles one advertisement and reports whether it ends the scan.
func (s *scan) observe(a advertisement) bool {
	if s.found.Load() != nil {
		return true
	}

	addr := a.Addr().String()
	name := a.LocalName()
	key := addr + "|" + name

	if count, seen := s.seen.Get(key); seen {
		s.seen.Set(key, count+1)
		if !s.opts.AllowDuplicates {
			return false
		}
	} else {
		s.seen.Set(key, 1)
	}

	adv := toAdvertisement(a)
	if s.opts.Observe != nil {
		s.opts.Observe(adv)
	}

	if name == "" || s.match == nil || !s.match(name) {
		return false
	}

	if !s.found.CompareAndSwap(nil, &adv) {
		return true
	}
	s.logger.WithFields(logrus.Fields{
		"address": addr,
		"name":    name,
		"rssi":    adv.RSSI,
	}).Debug("Matching advertisement")
	return true
}

func toAdvertisement(a advertisement) transport.Advertisement {
	adv := transport.Advertisement{
		Name:        a.LocalName(),
		Address:     a.Addr().String(),
		RSSI:        a.RSSI(),
		Connectable: a.Connectable(),
	}
	for _, u := range a.Services() {
		adv.Services = append(adv.Services, u.String())
	}
	if md := a.ManufacturerData(); len(md) > 0 {
		adv.ManufacturerData = append([]byte(nil), md...)
	}
	return adv
}
