package controller

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/transport"
)

// reportLayouts are the places an input report characteristic may live, in lookup order.
var reportLayouts = []struct {
	service string
	report  string
}{
	{service: gattdb.HIDService, report: gattdb.HIDReportChar},
	{service: gattdb.VendorService, report: gattdb.VendorReportChar},
}

// negotiate applies the peer's preferred connection parameters. Every failure is logged and ignored.
func (d *Driver) negotiate(s *session) {
	logger := d.logger.WithField("address", s.link.Address())

	gap, err := s.link.Service(gattdb.GenericAccessService)
	if err != nil {
		logger.WithField("error", err).Debug("Generic Access service unavailable, keeping link parameters")
		return
	}
	char, err := gap.Characteristic(gattdb.PreferredConnParamsChar)
	if err != nil {
		logger.WithField("error", err).Debug("No preferred connection parameters published")
		return
	}
	raw, err := char.Read()
	if err != nil {
		logger.WithField("error", err).Warn("Failed to read preferred connection parameters")
		return
	}
	params, err := transport.ParseConnParams(raw)
	if err != nil {
		logger.WithField("error", err).Warn("Ignoring malformed preferred connection parameters")
		return
	}
	if params.IsZero() {
		logger.Debug("Peer has no connection parameter preference")
		return
	}

	if err := s.link.UpdateConnectionParams(params); err != nil {
		entry := logger.WithFields(logrus.Fields{"params": params.String(), "error": err})
		if errors.Is(err, transport.ErrUnsupported) {
			entry.Debug("Backend cannot update connection parameters")
		} else {
			entry.Warn("Failed to update connection parameters")
		}
		return
	}
	logger.WithField("params", params.String()).Info("Connection parameters updated")
}

// subscribeReports resolves the input report characteristic and starts decoding it.
func (d *Driver) subscribeReports(s *session) error {
	var lastErr error
	for _, layout := range reportLayouts {
		svc, err := s.link.Service(layout.service)
		if err != nil {
			lastErr = keepSpecific(lastErr, err)
			continue
		}
		char, err := svc.Characteristic(layout.report)
		if err != nil {
			lastErr = keepSpecific(lastErr, err)
			continue
		}
		if !char.CanNotify() {
			lastErr = fmt.Errorf("characteristic %q in service %q does not support notifications", layout.report, layout.service)
			continue
		}

		s.gen.Store(d.gamepad.Begin(s.typ))
		d.trace.Clear()
		if err := char.Subscribe(d.onReport(s)); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", gattdb.Lookup(layout.report), err)
		}

		d.logger.WithFields(logrus.Fields{
			"service": gattdb.Lookup(layout.service),
			"report":  layout.report,
		}).Info("Subscribed to input reports")

		if layout.service == gattdb.HIDService {
			d.checkReportMap(s, svc)
		}
		return nil
	}
	if lastErr == nil {
		lastErr = &transport.NotFoundError{Resource: "service", UUIDs: []string{gattdb.HIDService}}
	}
	return lastErr
}

// keepSpecific prefers an error about a layout that exists over "not found" for a later one.
func keepSpecific(prev, next error) error {
	var nf *transport.NotFoundError
	if prev != nil && !errors.As(prev, &nf) {
		return prev
	}
	return next
}

// checkReportMap warns when the peer's HID descriptor differs from the one the decoder expects.
func (d *Driver) checkReportMap(s *session, hid transport.Service) {
	want := s.decoder.ReportMap()
	if want == nil {
		return
	}
	char, err := hid.Characteristic(gattdb.HIDReportMapChar)
	if err != nil {
		d.logger.WithField("error", err).Debug("HID report map not exposed")
		return
	}
	got, err := char.Read()
	if err != nil {
		d.logger.WithField("error", err).Debug("Failed to read HID report map")
		return
	}
	if !bytes.Equal(got, want) {
		d.logger.WithFields(logrus.Fields{
			"type":     s.typ,
			"expected": len(want),
			"actual":   len(got),
		}).Warn("HID report map differs from the known layout, decoded values may be wrong")
	}
}

// subscribeBattery reads and follows the battery level when the peer has one.
func (d *Driver) subscribeBattery(s *session) {
	svc, err := s.link.Service(gattdb.BatteryService)
	if err != nil {
		d.logger.WithField("error", err).Debug("Battery service unavailable")
		return
	}
	char, err := svc.Characteristic(gattdb.BatteryLevelChar)
	if err != nil {
		d.logger.WithField("error", err).Debug("Battery level unavailable")
		return
	}

	if raw, err := char.Read(); err == nil {
		d.applyBattery(s, raw)
	} else {
		d.logger.WithField("error", err).Debug("Failed to read battery level")
	}

	if !char.CanNotify() {
		return
	}
	if err := char.Subscribe(func(raw []byte) { d.applyBattery(s, raw) }); err != nil {
		d.logger.WithField("error", err).Warn("Failed to subscribe to battery level")
	}
}

func (d *Driver) applyBattery(s *session, raw []byte) {
	if s.dropped.Load() {
		return
	}
	r := s.decoder.DecodeBattery(raw)
	if len(r.Short) > 0 {
		d.logger.WithField("length", len(raw)).Warn("Empty battery level notification")
		return
	}
	d.gamepad.Apply(s.gen.Load(), r)
}
