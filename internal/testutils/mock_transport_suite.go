package testutils

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/pkg/config"
	"github.com/stretchr/testify/suite"
)

// MockTransportSuite provides a reusable test suite backed by a FakeTransport.
//
// Basic usage (default Xbox controller in range):
//
//	type DriverSuite struct {
//	    testutils.MockTransportSuite
//	}
//
//	func TestDriverSuite(t *testing.T) {
//	    suite.Run(t, new(DriverSuite))
//	}
//
// Custom peripheral usage:
//
//	func (s *DriverSuite) SetupTest() {
//	    s.WithPeripheral().
//	        WithService("1812").
//	        WithCharacteristic("2A4D", "read,notify", nil)
//
//	    s.MockTransportSuite.SetupTest() // Call parent last to apply configuration
//	}
type MockTransportSuite struct {
	suite.Suite

	Helper *TestHelper
	Logger *logrus.Logger

	Config     *config.Config
	Transport  *FakeTransport
	Peripheral *FakePeripheral

	PeripheralBuilder *PeripheralBuilder
}

// SetupSuite runs once before all tests in the suite.
func (s *MockTransportSuite) SetupSuite() {
	s.Helper = NewTestHelper(s.T())
	s.Logger = s.Helper.Logger
	s.Logger.Debug("Suite setup completed")
}

// SetupTest builds the configured peripheral and a fresh transport.
func (s *MockTransportSuite) SetupTest() {
	s.Helper.Hook.Reset()

	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewControllerBuilder()
	}
	s.Peripheral = s.PeripheralBuilder.Build()
	s.Transport = NewFakeTransport(s.Peripheral)

	s.Config = config.DefaultConfig()
	// Keep "nothing found" scans short.
	s.Config.ScanTimeout = 50 * time.Millisecond

	s.Logger.Debug("Test setup completed - ready for execution")
}

// TearDownTest resets the builder so each test starts from the default peripheral.
func (s *MockTransportSuite) TearDownTest() {
	s.PeripheralBuilder = nil
	s.Peripheral = nil
	s.Transport = nil
}

// WithPeripheral returns the peripheral builder for fluent configuration before SetupTest.
func (s *MockTransportSuite) WithPeripheral() *PeripheralBuilder {
	if s.PeripheralBuilder == nil {
		s.PeripheralBuilder = NewPeripheralBuilder()
	}
	return s.PeripheralBuilder
}
