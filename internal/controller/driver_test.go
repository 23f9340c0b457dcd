package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/testutils"
	"github.com/srg/blepad/internal/transport"
	"github.com/stretchr/testify/suite"
)

type DriverTestSuite struct {
	testutils.MockTransportSuite
}

func TestDriverTestSuite(t *testing.T) {
	suite.Run(t, new(DriverTestSuite))
}

func (s *DriverTestSuite) newDriver() *Driver {
	return New(s.Transport, s.Config, s.Logger)
}

// useTransport swaps in a transport serving only p.
func (s *DriverTestSuite) useTransport(p *testutils.FakePeripheral) {
	s.Peripheral = p
	s.Transport = testutils.NewFakeTransport(p)
}

func (s *DriverTestSuite) mustStart(d *Driver) StartResult {
	res, err := d.Start(context.Background())
	s.Require().NoError(err)
	s.Require().Equal(StatusConnected, res.Status)
	return res
}

func (s *DriverTestSuite) notifyReport(raw []byte) {
	s.Require().NoError(s.Transport.LastLink().Notify(gattdb.HIDService, gattdb.HIDReportChar, raw))
}

func (s *DriverTestSuite) TestStart_ReachesReady() {
	// GOAL: Verify a full lifecycle run against a well-formed controller
	//
	// TEST SCENARIO: Start → scan finds controller → connect → pair → negotiate → subscribe → Ready

	d := s.newDriver()
	s.Equal(Idle, d.State())

	res := s.mustStart(d)

	s.Equal(testutils.DefaultControllerAddress, res.Address)
	s.Equal(testutils.DefaultControllerName, res.Name)
	s.Equal(gamepad.XboxOne, res.Type)
	s.True(d.Connected())
	s.Equal(Ready, d.State())

	link := s.Transport.LastLink()
	s.True(link.Secured(), "link MUST be paired before Ready")
	s.True(link.Subscribed(gattdb.HIDService, gattdb.HIDReportChar), "HID report MUST be subscribed")
	s.True(link.Subscribed(gattdb.BatteryService, gattdb.BatteryLevelChar))
	s.Equal([]transport.ConnParams{{MinIntervalUnits: 6, MaxIntervalUnits: 12, Latency: 0, SupervisionTimeoutUnits: 100}},
		link.ParamUpdates(), "preferred connection parameters MUST be requested")

	snap := d.Snapshot()
	s.Equal(gamepad.XboxOne, snap.Type)
	s.Equal(gamepad.BatteryLevel{Value: 87, Valid: true}, snap.Battery)
	s.False(s.Helper.HasLog(logrus.WarnLevel, "HID report map differs from the known layout, decoded values may be wrong"))
}

func (s *DriverTestSuite) TestStart_IdempotentWhenReady() {
	// GOAL: Verify Start on a Ready driver is a no-op
	//
	// TEST SCENARIO: Start → Start again → AlreadyConnected, no second scan, still connected

	d := s.newDriver()
	s.mustStart(d)

	res, err := d.ScanAndConnect(context.Background())
	s.Require().NoError(err)

	s.Equal(StatusAlreadyConnected, res.Status)
	s.Equal(testutils.DefaultControllerAddress, res.Address)
	s.Equal(1, s.Transport.Scans(), "MUST NOT issue a new scan")
	s.Equal(1, s.Transport.Connects())
	s.True(d.Connected())
}

func (s *DriverTestSuite) TestNotifications_UpdateSnapshot() {
	// GOAL: Verify notifications flow through the decoder into the snapshot
	//
	// TEST SCENARIO: Ready → HID notification → snapshot reflects sticks, triggers, buttons

	d := s.newDriver()
	s.mustStart(d)

	raw := []byte{
		0x01, 0x00, 0x02, 0x00, // right stick
		0x03, 0x00, 0x04, 0x00, // left stick
		0xFF, 0x03, // LT at end stop
		0x10, 0x00, // throttle
		0x05, // dpad down
		0x91, // A Y RB
		0x08, // start
		0x00,
	}
	s.notifyReport(raw)

	snap := d.Snapshot()
	s.Equal(gamepad.Stick{X: 1, Y: 2}, snap.Axes.Right)
	s.Equal(gamepad.Stick{X: 3, Y: 4}, snap.Axes.Left)
	s.Equal(uint8(0xFF), snap.Axes.Brake)
	s.Equal(uint8(0x10), snap.Axes.Throttle)
	s.Equal(gamepad.TriggerButtons{LT: true}, snap.Buttons.Triggers)
	s.Equal(gamepad.DpadDown, snap.Buttons.Dpad)
	s.Equal(gamepad.ButtonA|gamepad.ButtonY|gamepad.ButtonRB, snap.Buttons.Common)
	s.Equal(gamepad.ButtonStart, snap.Buttons.Misc)
	s.False(snap.UpdatedAt.IsZero())

	s.Require().NoError(s.Transport.LastLink().Notify(gattdb.BatteryService, gattdb.BatteryLevelChar, []byte{42}))
	s.Equal(gamepad.BatteryLevel{Value: 42, Valid: true}, d.Snapshot().Battery)
}

func (s *DriverTestSuite) TestNotifications_ShortReportIsAbsorbed() {
	// GOAL: Verify a short report keeps previous values and only logs
	//
	// TEST SCENARIO: full report → 5-byte report → sticks unchanged, warning logged

	d := s.newDriver()
	s.mustStart(d)

	s.notifyReport([]byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00, 0x40, 0x00, 0, 0, 0, 0, 0, 0x02, 0})
	s.notifyReport([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	snap := d.Snapshot()
	s.Equal(gamepad.Stick{X: 0x10, Y: 0x20}, snap.Axes.Right)
	s.Equal(gamepad.ButtonB, snap.Buttons.Common)
	s.True(d.Connected())
	s.True(s.Helper.HasLog(logrus.WarnLevel, "Short input report, keeping previous values"))
}

func (s *DriverTestSuite) TestDisconnect_CallbackWhileReady() {
	// GOAL: Verify a remote disconnect moves Ready → Disconnected and clears the snapshot
	//
	// TEST SCENARIO: Ready → peer drops → Connected false, snapshot reset → Start again → Ready

	d := s.newDriver()
	s.mustStart(d)
	s.notifyReport([]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00})

	s.Transport.LastLink().SimulateDisconnect()

	s.Equal(Disconnected, d.State())
	s.False(d.Connected(), "MUST NOT report connected after disconnect")
	s.Equal(gamepad.Snapshot{}, d.Snapshot())

	_, err := d.DeviceData(context.Background())
	s.ErrorIs(err, transport.ErrNotConnected)

	s.mustStart(d)
	s.True(d.Connected())
	s.Equal(2, s.Transport.Scans())
}

func (s *DriverTestSuite) TestDisconnect_InFlightReportIsDiscarded() {
	// GOAL: A report already past the dropped check when the link goes away never reaches the reset snapshot
	//
	// TEST SCENARIO: Ready → capture the live session's report handler state → peer drops → deliver the in-flight report → snapshot stays empty

	d := s.newDriver()
	s.mustStart(d)
	d.SetDebug(true)

	d.mu.Lock()
	live := d.session
	d.mu.Unlock()
	s.Require().NotNil(live)

	// Same generation as the live session, but its dropped flag was read before the drop.
	inflight := &session{link: live.link, decoder: live.decoder}
	inflight.gen.Store(live.gen.Load())

	s.Transport.LastLink().SimulateDisconnect()
	s.Require().Equal(Disconnected, d.State())

	d.onReport(inflight)([]byte{0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x00, 0, 0, 0, 0, 0, 0x01, 0})

	s.Equal(gamepad.Snapshot{Debug: true}, d.Snapshot(), "Disconnect MUST leave no decoded readings behind")
	s.Empty(d.RecentReports(), "Discarded reports MUST NOT be traced")
}

func (s *DriverTestSuite) TestDisconnect_Explicit() {
	d := s.newDriver()
	s.mustStart(d)
	link := s.Transport.LastLink()

	s.Require().NoError(d.Disconnect())

	s.False(link.Connected())
	s.Equal(Disconnected, d.State())
	s.ErrorIs(d.Disconnect(), transport.ErrNotConnected)

	s.Require().NoError(d.Close())
	s.True(s.Transport.Closed())
}

func (s *DriverTestSuite) TestStart_NotFoundThenRetry() {
	// GOAL: Verify "nothing found" is not an error and the caller can simply retry
	//
	// TEST SCENARIO: no controller in range → NotFound, Idle → controller appears → Start → Ready

	s.Transport.RemovePeripherals()
	d := s.newDriver()

	res, err := d.Start(context.Background())
	s.Require().NoError(err)
	s.Equal(StatusNotFound, res.Status)
	s.Equal(Idle, d.State())
	s.False(d.Connected())
	s.Zero(s.Transport.Connects())

	s.Transport.AddPeripheral(s.Peripheral)
	s.mustStart(d)
	s.Equal(2, s.Transport.Scans())
}

func (s *DriverTestSuite) TestStart_IgnoresUnsupportedNames() {
	s.useTransport(testutils.NewControllerBuilder().WithName("Heart Rate Sensor").Build())
	d := s.newDriver()

	res, err := d.Start(context.Background())
	s.Require().NoError(err)
	s.Equal(StatusNotFound, res.Status)
	s.Zero(s.Transport.Connects())
}

func (s *DriverTestSuite) TestStart_CancelledDuringScan() {
	s.Transport.RemovePeripherals()
	d := s.newDriver()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := d.Start(ctx)
	s.ErrorIs(err, ErrDiscoveryFailed)
	s.ErrorIs(err, context.Canceled)
	s.Equal(Idle, d.State())
}

func (s *DriverTestSuite) TestStart_Failures() {
	// GOAL: Verify every failing step surfaces a typed failure and returns to Idle
	//
	// TEST SCENARIO: inject a failure per step → Start → *Failure of that kind → Idle → link dropped

	scanErr := errors.New("adapter not powered")
	connectErr := errors.New("le-connection-abort-by-local")

	tests := []struct {
		name       string
		peripheral *testutils.FakePeripheral
		setup      func(t *testutils.FakeTransport)
		kind       FailureKind
		sentinel   error
		wantLink   bool
	}{
		{
			name:       "scan error",
			peripheral: testutils.NewControllerBuilder().Build(),
			setup:      func(t *testutils.FakeTransport) { t.ScanErr = scanErr },
			kind:       KindDiscovery,
			sentinel:   ErrDiscoveryFailed,
		},
		{
			name:       "connect error",
			peripheral: testutils.NewControllerBuilder().Build(),
			setup:      func(t *testutils.FakeTransport) { t.ConnectErr = connectErr },
			kind:       KindLink,
			sentinel:   ErrLinkFailed,
		},
		{
			name:       "wrong passkey",
			peripheral: testutils.NewControllerBuilder().WithPasskey(654321).Build(),
			kind:       KindPairing,
			sentinel:   ErrPairingFailed,
			wantLink:   true,
		},
		{
			name: "no input report",
			peripheral: testutils.NewPeripheralBuilder().
				WithService(gattdb.GenericAccessService).
				WithCharacteristic(gattdb.DeviceNameChar, "read", []byte(testutils.DefaultControllerName)).
				Build(),
			kind:     KindGATT,
			sentinel: ErrGATTFailed,
			wantLink: true,
		},
		{
			name: "report not notifiable",
			peripheral: testutils.NewPeripheralBuilder().
				WithService(gattdb.HIDService).
				WithCharacteristic(gattdb.HIDReportChar, "read", nil).
				Build(),
			kind:     KindGATT,
			sentinel: ErrGATTFailed,
			wantLink: true,
		},
		{
			name: "subscribe refused",
			peripheral: testutils.NewPeripheralBuilder().
				WithService(gattdb.HIDService).
				WithCharacteristic(gattdb.HIDReportChar, "read,notify", nil).
				WithSubscribeError(errors.New("insufficient authentication")).
				Build(),
			kind:     KindGATT,
			sentinel: ErrGATTFailed,
			wantLink: true,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.useTransport(tt.peripheral)
			if tt.setup != nil {
				tt.setup(s.Transport)
			}
			d := s.newDriver()

			_, err := d.Start(context.Background())

			var failure *Failure
			s.Require().ErrorAs(err, &failure)
			s.Equal(tt.kind, failure.Kind)
			s.ErrorIs(err, tt.sentinel)
			s.Equal(Idle, d.State(), "failed Start MUST return to Idle")
			s.False(d.Connected())

			if tt.wantLink {
				s.Require().NotNil(s.Transport.LastLink())
				s.False(s.Transport.LastLink().Connected(), "failed setup MUST drop the link")
			}
		})
	}
}

func (s *DriverTestSuite) TestStart_MissingHIDReportsNotFound() {
	s.useTransport(testutils.NewPeripheralBuilder().
		WithService(gattdb.BatteryService).
		WithCharacteristic(gattdb.BatteryLevelChar, "read", []byte{10}).
		Build())
	d := s.newDriver()

	_, err := d.Start(context.Background())

	var notFound *transport.NotFoundError
	s.Require().ErrorAs(err, &notFound)
	s.Equal("service", notFound.Resource)
}

func (s *DriverTestSuite) TestStart_DisconnectDuringPairing() {
	// GOAL: Verify a peer disconnect mid-pairing leaves the driver Disconnected, and a restart works
	//
	// TEST SCENARIO: peer drops inside SecureLink → pairing failure → Disconnected → Start → Ready

	s.useTransport(testutils.NewControllerBuilder().
		WithSecureLinkHook(func(_ context.Context, link *testutils.FakeLink) error {
			link.SimulateDisconnect()
			return errors.New("le-connection-abort-by-remote")
		}).
		Build())
	d := s.newDriver()

	_, err := d.Start(context.Background())
	s.ErrorIs(err, ErrPairingFailed)
	s.Equal(Disconnected, d.State())
	s.False(d.Connected())

	s.Peripheral.OnSecureLink = nil
	s.mustStart(d)
	s.Equal(Ready, d.State())
}

func (s *DriverTestSuite) TestStart_VendorLayoutFallback() {
	// GOAL: Verify the vendor GATT layout is used when HID is absent
	//
	// TEST SCENARIO: peripheral exposes only the vendor service → Start → Ready → vendor notifications decode

	s.useTransport(testutils.NewPeripheralBuilder().
		WithService(gattdb.FullUUID(gattdb.VendorService)).
		WithCharacteristic(gattdb.FullUUID(gattdb.VendorReportChar), "notify", nil).
		Build())
	d := s.newDriver()
	s.mustStart(d)

	s.Require().NoError(s.Transport.LastLink().Notify(gattdb.VendorService, gattdb.VendorReportChar,
		[]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0x07}))
	s.Equal(gamepad.DpadLeft, d.Snapshot().Buttons.Dpad)
	s.False(d.Snapshot().Battery.Valid, "battery MUST stay absent without a battery service")
}

func (s *DriverTestSuite) TestStart_ReportMapMismatchOnlyWarns() {
	s.useTransport(testutils.NewPeripheralBuilder().
		WithService(gattdb.HIDService).
		WithCharacteristic(gattdb.HIDReportMapChar, "read", []byte{0x05, 0x01}).
		WithCharacteristic(gattdb.HIDReportChar, "read,notify", nil).
		Build())
	d := s.newDriver()
	s.mustStart(d)

	s.True(s.Helper.HasLog(logrus.WarnLevel, "HID report map differs from the known layout, decoded values may be wrong"))
}

func (s *DriverTestSuite) TestStart_ParamUpdateFailureIsNotFatal() {
	s.useTransport(testutils.NewControllerBuilder().WithUpdateParamsError(transport.ErrUnsupported).Build())
	d := s.newDriver()
	s.mustStart(d)

	s.Empty(s.Transport.LastLink().ParamUpdates())
	s.True(d.Connected())
}

func (s *DriverTestSuite) TestDeviceData_Full() {
	d := s.newDriver()
	s.mustStart(d)

	info, err := d.DeviceData(context.Background())
	s.Require().NoError(err)

	s.Require().NotNil(info.Name)
	s.Equal(testutils.DefaultControllerName, *info.Name)
	s.Require().NotNil(info.Manufacturer)
	s.Equal("Microsoft", *info.Manufacturer)
	s.Require().NotNil(info.Firmware)
	s.Equal("5.17.3202.0", *info.Firmware)
	s.Require().NotNil(info.Serial)
	s.Equal("3033363030313531", *info.Serial, "trailing NUL padding MUST be trimmed")
}

func (s *DriverTestSuite) TestDeviceData_Partial() {
	// GOAL: Verify unreadable or non-UTF-8 fields are omitted without failing the call
	//
	// TEST SCENARIO: manufacturer is invalid UTF-8, firmware read fails, serial missing → only name present

	s.useTransport(testutils.NewPeripheralBuilder().
		WithService(gattdb.GenericAccessService).
		WithCharacteristic(gattdb.DeviceNameChar, "read", []byte(testutils.DefaultControllerName)).
		WithService(gattdb.DeviceInformationService).
		WithCharacteristic(gattdb.ManufacturerNameChar, "read", []byte{0xFF, 0xFE, 0xFD}).
		WithCharacteristic(gattdb.FirmwareRevisionChar, "read", nil).
		WithReadError(errors.New("read not permitted")).
		WithService(gattdb.HIDService).
		WithCharacteristic(gattdb.HIDReportChar, "notify", nil).
		Build())
	d := s.newDriver()
	s.mustStart(d)

	info, err := d.DeviceData(context.Background())
	s.Require().NoError(err, "partial device info MUST NOT be an error")

	s.Require().NotNil(info.Name)
	s.Equal(testutils.DefaultControllerName, *info.Name)
	s.Nil(info.Manufacturer)
	s.Nil(info.Firmware)
	s.Nil(info.Serial)
}

func (s *DriverTestSuite) TestDeviceData_NotConnected() {
	d := s.newDriver()
	_, err := d.DeviceData(context.Background())
	s.ErrorIs(err, transport.ErrNotConnected)
}

func (s *DriverTestSuite) TestDebugMode() {
	// GOAL: Verify debug mode is an explicit switch that captures raw reports
	//
	// TEST SCENARIO: Guide press leaves debug off → SetDebug(true) → reports traced → ToggleDebug off

	d := s.newDriver()
	s.mustStart(d)

	guide := make([]byte, 15)
	guide[14] = byte(gamepad.ButtonGuide)
	s.notifyReport(guide)
	s.False(d.Snapshot().Debug, "Guide MUST NOT toggle debug by itself")
	s.Empty(d.RecentReports())

	d.SetDebug(true)
	s.notifyReport([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	s.Equal([][]byte{{1, 2, 3, 4, 5, 6, 7, 8}}, d.RecentReports())
	s.True(d.Snapshot().Debug)

	s.False(d.ToggleDebug())
	s.notifyReport([]byte{9, 9, 9, 9, 9, 9, 9, 9})
	s.Len(d.RecentReports(), 1, "reports MUST NOT be traced with debug off")
}
