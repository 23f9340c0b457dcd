// Package tinyble implements transport.Transport on top of tinygo.org/x/bluetooth,
// which talks to BlueZ on Linux, CoreBluetooth on macOS and WinRT on Windows.
package tinyble

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/groutine"
	"github.com/srg/blepad/internal/transport"
	"tinygo.org/x/bluetooth"
)

// Options selects the adapter.
type Options struct {
	// Adapter is the BlueZ adapter name; other platforms have a single default adapter.
	Adapter string
}

// pairer secures links where the platform needs an agent for it.
type pairer interface {
	Pair(ctx context.Context, address string, policy transport.PairingPolicy) error
	Close() error
}

// Transport is a tinygo-bluetooth central.
type Transport struct {
	radio  radio
	pairer pairer
	logger *logrus.Logger

	scanMu    sync.Mutex
	addresses *hashmap.Map[string, bluetooth.Address] // addresses heard by scans
	links     *hashmap.Map[string, *link]
}

//nolint:gochecknoglobals
var hidServiceUUID = mustParseUUID(gattdb.HIDService)

// New enables the platform adapter.
func New(opts Options, logger *logrus.Logger) (*Transport, error) {
	if logger == nil {
		logger = logrus.New()
	}
	adapter, p, err := platformAdapter(opts, logger)
	if err != nil {
		return nil, err
	}
	t := newTransport(adapterRadio{adapter: adapter}, p, logger)
	if err := t.radio.Enable(); err != nil {
		return nil, fmt.Errorf("failed to enable BLE adapter: %w", transport.NormalizeError(err))
	}
	t.radio.SetConnectHandler(t.connectEvent)
	return t, nil
}

func newTransport(r radio, p pairer, logger *logrus.Logger) *Transport {
	if logger == nil {
		logger = logrus.New()
	}
	return &Transport{
		radio:     r,
		pairer:    p,
		logger:    logger,
		addresses: hashmap.New[string, bluetooth.Address](),
		links:     hashmap.New[string, *link](),
	}
}

// Scan runs until the first advertisement whose name matches, or until ctx is done.
// tinygo-bluetooth picks its own scan timing, so opts.Interval and opts.Window are ignored.
func (t *Transport) Scan(ctx context.Context, opts transport.ScanOptions, match transport.NameFilter) (*transport.Advertisement, error) {
	t.scanMu.Lock()
	defer t.scanMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil
	}

	s := newScan(opts, match, t.logger)
	done := make(chan struct{})
	groutine.Go(ctx, "tinyble-scan-stopper", func(ctx context.Context) {
		select {
		case <-ctx.Done():
			if err := t.radio.StopScan(); err != nil {
				t.logger.WithField("error", err).Debug("StopScan on context end failed")
			}
		case <-done:
		}
	})

	err := t.radio.Scan(func(seen sighting) {
		t.addresses.Set(seen.adv.Address, seen.address)
		if s.observe(seen.adv) || ctx.Err() != nil {
			_ = t.radio.StopScan()
		}
	})
	close(done)

	if adv := s.found.Load(); adv != nil {
		return adv, nil
	}
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("scan failed: %w", transport.NormalizeError(err))
	}
	t.logger.WithField("devices", s.seen.Len()).Debug("Scan finished without a match")
	return nil, nil
}

// Connect opens a link to an address heard by an earlier scan.
func (t *Transport) Connect(ctx context.Context, address string) (transport.Link, error) {
	addr, ok := t.addresses.Get(address)
	if !ok {
		return nil, &transport.NotFoundError{Resource: "device", UUIDs: []string{address}}
	}

	type connectResult struct {
		dev peripheral
		err error
	}
	ch := make(chan connectResult, 1)
	groutine.Go(context.Background(), "tinyble-connect", func(context.Context) {
		dev, err := t.radio.Connect(addr)
		ch <- connectResult{dev, err}
	})

	t.logger.WithField("address", address).Debug("Connecting to BLE device...")
	select {
	case <-ctx.Done():
		groutine.Go(context.Background(), "tinyble-connect-cleanup", func(context.Context) {
			t.dropLateConnect(address, (<-ch).dev)
		})
		return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, ctx.Err())
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to device with address %q: %w", address, transport.NormalizeError(res.err))
		}
		l := newLink(address, res.dev, t)
		t.links.Set(address, l)
		return l, nil
	}
}

// dropLateConnect disconnects a device whose connect finished after the caller gave up.
func (t *Transport) dropLateConnect(address string, dev peripheral) {
	if dev == nil {
		return
	}
	logger := t.logger.WithField("address", address)
	logger.Debug("Connect completed after cancellation, disconnecting")
	if err := dev.Disconnect(); err != nil {
		logger.WithField("error", err).Warn("Failed to drop abandoned connection")
	}
}

// Close stops scanning, drops open links and releases the pairing agent.
func (t *Transport) Close() error {
	_ = t.radio.StopScan()

	var links []*link
	t.links.Range(func(_ string, l *link) bool {
		links = append(links, l)
		return true
	})
	for _, l := range links {
		if err := l.Disconnect(); err != nil {
			t.logger.WithFields(logrus.Fields{
				"address": l.address,
				"error":   err,
			}).Warn("Failed to disconnect during close")
		}
	}

	if t.pairer != nil {
		return t.pairer.Close()
	}
	return nil
}

// connectEvent routes adapter-level connection changes to the owning link.
func (t *Transport) connectEvent(address string, connected bool) {
	if connected {
		return
	}
	l, ok := t.links.Get(address)
	if !ok {
		return
	}
	t.links.Del(address)
	t.logger.WithField("address", address).Debug("Adapter reported disconnection")
	l.fire()
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
func (s *scan) observe(adv transport.Advertisement) bool {
	if s.found.Load() != nil {
		return true
	}

	key := adv.Address + "|" + adv.Name
	count, _ := s.seen.Get(key)
	s.seen.Set(key, count+1)
	if count > 0 && !s.opts.AllowDuplicates {
		return false
	}

	if s.opts.Observe != nil {
		s.opts.Observe(adv)
	}
	if adv.Name == "" || s.match == nil || !s.match(adv.Name) {
		return false
	}
	if !s.found.CompareAndSwap(nil, &adv) {
		return true
	}
	s.logger.WithFields(logrus.Fields{
		"address": adv.Address,
		"name":    adv.Name,
		"rssi":    adv.RSSI,
	}).Debug("Matching advertisement")
	return true
}

func fromScanResult(result bluetooth.ScanResult) transport.Advertisement {
	adv := transport.Advertisement{
		Name:        result.LocalName(),
		Address:     result.Address.String(),
		RSSI:        int(result.RSSI),
		Connectable: true,
	}
	if result.HasServiceUUID(hidServiceUUID) {
		adv.Services = []string{gattdb.HIDService}
	}
	for _, md := range result.ManufacturerData() {
		adv.ManufacturerData = append(adv.ManufacturerData, manufacturerBytes(md.CompanyID, md.Data)...)
	}
	return adv
}

// manufacturerBytes restores the on-air layout: little-endian company ID then payload.
func manufacturerBytes(companyID uint16, data []byte) []byte {
	out := make([]byte, 2, 2+len(data))
	binary.LittleEndian.PutUint16(out, companyID)
	return append(out, data...)
}

func parseUUID(uuid string) (bluetooth.UUID, error) {
	full := gattdb.FullUUID(uuid)
	if full == "" {
		return bluetooth.UUID{}, fmt.Errorf("invalid UUID %q", uuid)
	}
	return bluetooth.ParseUUID(full)
}

func mustParseUUID(uuid string) bluetooth.UUID {
	u, err := parseUUID(uuid)
	if err != nil {
		panic(err)
	}
	return u
}
