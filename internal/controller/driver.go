// Package controller drives the gamepad connection lifecycle:
// Idle → Scanning → Connecting → Pairing → Ready → Disconnected → Idle.
//
// One goroutine at a time runs Start; it blocks on transport calls only.
// Notifications arrive on transport goroutines and touch nothing but the
// shared gamepad.State.
package controller

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/transport"
	"github.com/srg/blepad/pkg/config"
)

// StartResult describes a Start call that did not fail.
type StartResult struct {
	Status  StartStatus
	Address string
	Name    string
	Type    gamepad.GamepadType
}

// session is one link from connect until it drops. It is owned by the driver.
type session struct {
	link    transport.Link
	name    string
	typ     gamepad.GamepadType
	decoder gamepad.Decoder
	dropped atomic.Bool
	gen     atomic.Uint64 // gamepad.State generation its reports carry
}

// Driver owns at most one controller connection.
type Driver struct {
	transport transport.Transport
	cfg       *config.Config
	logger    *logrus.Logger

	lifecycle sync.Mutex // serializes Start

	mu      sync.Mutex // guards state, session, pending
	state   State
	session *session // set only in Ready
	pending *session // link being set up by Start

	gamepad *gamepad.State
	trace   *gamepad.ReportTrace
}

// New creates a driver on top of t. A nil cfg uses defaults; a nil logger uses logrus.New().
func New(t transport.Transport, cfg *config.Config, logger *logrus.Logger) *Driver {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	d := &Driver{
		transport: t,
		cfg:       cfg,
		logger:    logger,
		state:     Idle,
		gamepad:   gamepad.NewState(),
		trace:     gamepad.NewReportTrace(cfg.TraceBytes),
	}
	d.gamepad.SetDebug(cfg.Debug)
	return d
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Connected reports whether the driver is Ready. A snapshot read while this is
// false must be treated as stale.
func (d *Driver) Connected() bool {
	return d.State() == Ready
}

// Snapshot returns a copy of the latest decoded controller state.
func (d *Driver) Snapshot() gamepad.Snapshot {
	return d.gamepad.Snapshot()
}

// SetDebug switches raw report tracing on or off.
func (d *Driver) SetDebug(on bool) {
	d.gamepad.SetDebug(on)
	d.logger.WithField("debug", on).Info("Debug mode changed")
}

// ToggleDebug flips debug mode and returns the new value.
func (d *Driver) ToggleDebug() bool {
	on := d.gamepad.ToggleDebug()
	d.logger.WithField("debug", on).Info("Debug mode changed")
	return on
}

// RecentReports returns the raw reports captured while debug mode was on, oldest first.
func (d *Driver) RecentReports() [][]byte {
	return d.trace.Recent()
}

// ScanAndConnect is an alias for Start.
func (d *Driver) ScanAndConnect(ctx context.Context) (StartResult, error) {
	return d.Start(ctx)
}

// Start scans for a supported controller and brings it to Ready.
//
// When already Ready it returns StatusAlreadyConnected without scanning. When
// nothing matches within the scan timeout it returns StatusNotFound and the
// driver is Idle again. Every other problem is a *Failure. Only the scan is
// bounded in time; connect and pairing wait for the transport.
func (d *Driver) Start(ctx context.Context) (StartResult, error) {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()

	d.mu.Lock()
	if d.state == Ready && d.session != nil {
		s := d.session
		d.mu.Unlock()
		d.logger.WithField("address", s.link.Address()).Debug("Start called while connected, nothing to do")
		return StartResult{Status: StatusAlreadyConnected, Address: s.link.Address(), Name: s.name, Type: s.typ}, nil
	}
	if d.state == Disconnected {
		d.setStateLocked(Idle)
	}
	d.setStateLocked(Scanning)
	d.mu.Unlock()

	adv, err := d.scan(ctx)
	if err != nil {
		d.setState(Idle)
		return StartResult{}, &Failure{Kind: KindDiscovery, Op: "scan", Err: err}
	}
	if adv == nil {
		d.setState(Idle)
		d.logger.WithField("timeout", d.cfg.ScanTimeout).Info("No compatible controller found")
		return StartResult{Status: StatusNotFound}, nil
	}

	typ, _ := gamepad.Detect(adv.Name)
	decoder, err := gamepad.NewDecoder(typ)
	if err != nil {
		d.setState(Idle)
		return StartResult{}, &Failure{Kind: KindDiscovery, Op: "select decoder", Err: err}
	}

	logger := d.logger.WithFields(logrus.Fields{
		"address": adv.Address,
		"name":    adv.Name,
		"type":    typ,
	})
	logger.WithField("rssi", adv.RSSI).Info("Compatible controller found")

	d.setState(Connecting)
	link, err := d.transport.Connect(ctx, adv.Address)
	if err != nil {
		d.setState(Idle)
		logger.WithField("error", err).Error("Failed to connect")
		return StartResult{}, &Failure{Kind: KindLink, Op: "connect", Err: err}
	}

	s := &session{link: link, name: adv.Name, typ: typ, decoder: decoder}
	d.mu.Lock()
	d.pending = s
	d.mu.Unlock()
	link.OnDisconnect(func() { d.handleDisconnect(s) })

	d.advance(s, Pairing)
	policy := transport.PairingPolicy{Passkey: d.cfg.Passkey, PlatformPairing: d.cfg.PlatformPairing}
	if err := link.SecureLink(ctx, policy); err != nil {
		logger.WithField("error", err).Error("Failed to secure link")
		return StartResult{}, d.abort(s, &Failure{Kind: KindPairing, Op: "secure link", Err: err})
	}
	logger.Debug("Link secured")

	d.negotiate(s)

	if err := d.subscribeReports(s); err != nil {
		logger.WithField("error", err).Error("Controller does not expose a usable input report")
		return StartResult{}, d.abort(s, &Failure{Kind: KindGATT, Op: "subscribe report", Err: err})
	}
	d.subscribeBattery(s)

	d.mu.Lock()
	if s.dropped.Load() {
		d.pending = nil
		d.mu.Unlock()
		return StartResult{}, &Failure{Kind: KindLink, Op: "setup", Err: transport.ErrNotConnected}
	}
	d.pending = nil
	d.session = s
	d.setStateLocked(Ready)
	d.mu.Unlock()

	logger.Info("Controller ready")
	return StartResult{Status: StatusConnected, Address: adv.Address, Name: adv.Name, Type: typ}, nil
}

// Disconnect drops the active link. The driver ends in Disconnected.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	s := d.session
	if s == nil {
		d.mu.Unlock()
		return transport.ErrNotConnected
	}
	d.dropLocked(s)
	d.mu.Unlock()

	d.gamepad.Reset()
	d.logger.WithField("address", s.link.Address()).Info("Disconnecting controller")
	return s.link.Disconnect()
}

// Close disconnects if needed and releases the transport.
func (d *Driver) Close() error {
	if err := d.Disconnect(); err != nil && !errors.Is(err, transport.ErrNotConnected) {
		d.logger.WithField("error", err).Warn("Failed to disconnect while closing")
	}
	return d.transport.Close()
}

func (d *Driver) scan(ctx context.Context) (*transport.Advertisement, error) {
	scanCtx, cancel := context.WithTimeout(ctx, d.cfg.ScanTimeout)
	defer cancel()

	d.logger.WithFields(logrus.Fields{
		"timeout":  d.cfg.ScanTimeout,
		"interval": d.cfg.ScanInterval,
		"window":   d.cfg.ScanWindow,
	}).Info("Scanning for controllers...")

	adv, err := d.transport.Scan(scanCtx, transport.ScanOptions{
		Interval:        d.cfg.ScanInterval,
		Window:          d.cfg.ScanWindow,
		AllowDuplicates: d.cfg.AllowDuplicates,
	}, gamepad.IsSupported)
	if err != nil {
		return nil, err
	}
	// The scan timing out is "not found"; the caller giving up is not.
	if adv == nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return adv, nil
}

// abort tears down a session that failed during setup and returns f.
func (d *Driver) abort(s *session, f *Failure) error {
	d.mu.Lock()
	wasDropped := s.dropped.Swap(true)
	d.pending = nil
	if wasDropped {
		// The peer went away first; the disconnect handler already moved us to Disconnected.
		d.mu.Unlock()
		return f
	}
	d.setStateLocked(Idle)
	d.mu.Unlock()

	if err := s.link.Disconnect(); err != nil {
		d.logger.WithField("error", err).Debug("Failed to drop link after setup failure")
	}
	return f
}

// handleDisconnect runs on the transport's goroutine when a link goes away.
func (d *Driver) handleDisconnect(s *session) {
	d.mu.Lock()
	if s.dropped.Load() {
		d.mu.Unlock()
		return
	}
	d.dropLocked(s)
	if d.pending == s {
		d.pending = nil
	}
	d.mu.Unlock()

	d.gamepad.Reset()
	d.logger.WithField("address", s.link.Address()).Warn("Controller disconnected")
}

// dropLocked marks s gone and moves to Disconnected. d.mu must be held.
func (d *Driver) dropLocked(s *session) {
	s.dropped.Store(true)
	if d.session == s {
		d.session = nil
	}
	d.setStateLocked(Disconnected)
}

// onReport is the HID notification path. It must not block.
func (d *Driver) onReport(s *session) func([]byte) {
	return func(raw []byte) {
		if s.dropped.Load() {
			return
		}
		r := s.decoder.Decode(raw)
		if !d.gamepad.Apply(s.gen.Load(), r) {
			// The session was reset between the check above and now.
			return
		}

		if d.gamepad.Debug() {
			d.trace.Record(raw)
			d.logger.WithFields(logrus.Fields{
				"raw":    hex.EncodeToString(raw),
				"length": len(raw),
			}).Info("Raw report")
		}
		if len(r.Short) > 0 {
			d.logger.WithFields(logrus.Fields{
				"length":  len(raw),
				"skipped": r.Short,
			}).Warn("Short input report, keeping previous values")
		}
	}
}

// advance moves a live session forward. A dropped session stays Disconnected.
func (d *Driver) advance(s *session, next State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s.dropped.Load() {
		return
	}
	d.setStateLocked(next)
}

func (d *Driver) setState(next State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.setStateLocked(next)
}

func (d *Driver) setStateLocked(next State) {
	if d.state == next {
		return
	}
	d.logger.WithFields(logrus.Fields{
		"from": d.state,
		"to":   next,
	}).Debug("Connection state changed")
	d.state = next
}
