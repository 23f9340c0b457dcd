package controller

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/transport"
)

// DeviceData reads the controller's identification strings once.
//
// Any field that cannot be read or is not valid UTF-8 is left nil; a partial
// result is not an error. The only errors are transport.ErrNotConnected and
// ctx being done, in which case the fields read so far are still returned.
func (d *Driver) DeviceData(ctx context.Context) (gamepad.DeviceInfo, error) {
	d.mu.Lock()
	s := d.session
	d.mu.Unlock()
	if s == nil {
		return gamepad.DeviceInfo{}, transport.ErrNotConnected
	}

	var info gamepad.DeviceInfo
	for _, f := range []struct {
		service string
		char    string
		dst     **string
	}{
		{gattdb.GenericAccessService, gattdb.DeviceNameChar, &info.Name},
		{gattdb.DeviceInformationService, gattdb.ManufacturerNameChar, &info.Manufacturer},
		{gattdb.DeviceInformationService, gattdb.FirmwareRevisionChar, &info.Firmware},
		{gattdb.DeviceInformationService, gattdb.SerialNumberChar, &info.Serial},
	} {
		if err := ctx.Err(); err != nil {
			return info, err
		}
		*f.dst = d.readText(s, f.service, f.char)
	}
	return info, nil
}

func (d *Driver) readText(s *session, service, char string) *string {
	logger := d.logger.WithFields(logrus.Fields{
		"service":        service,
		"characteristic": gattdb.Lookup(char),
	})

	svc, err := s.link.Service(service)
	if err != nil {
		logger.WithField("error", err).Debug("Device info service unavailable")
		return nil
	}
	c, err := svc.Characteristic(char)
	if err != nil {
		logger.WithField("error", err).Debug("Device info characteristic unavailable")
		return nil
	}
	raw, err := c.Read()
	if err != nil {
		logger.WithField("error", err).Debug("Failed to read device info")
		return nil
	}
	if !utf8.Valid(raw) {
		logger.Debug("Device info is not valid UTF-8, omitting")
		return nil
	}
	text := strings.TrimRight(string(raw), "\x00")
	return &text
}
