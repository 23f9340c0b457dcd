package testutils

import (
	"context"
	"strings"

	"github.com/srg/blepad/internal/gamepad"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/transport"
)

const (
	DefaultControllerName    = "Xbox Wireless Controller"
	DefaultControllerAddress = "C8:3F:26:A5:6C:00"
)

type fakeCharConfig struct {
	uuid         string
	read         bool
	notify       bool
	value        []byte
	readErr      error
	subscribeErr error
}

type fakeServiceConfig struct {
	uuid  string
	chars []*fakeCharConfig
}

// FakePeripheral is a simulated BLE peripheral.
type FakePeripheral struct {
	Name     string
	Address  string
	RSSI     int
	Services []*fakeServiceConfig

	ManufacturerData []byte

	// Passkey, when set, is the only passkey the peripheral accepts.
	Passkey *uint32
	// OnSecureLink runs at the start of SecureLink; a non-nil error fails pairing.
	OnSecureLink    func(ctx context.Context, link *FakeLink) error
	UpdateParamsErr error
}

// Advertisement returns what the peripheral advertises.
func (p *FakePeripheral) Advertisement() transport.Advertisement {
	adv := transport.Advertisement{
		Name:        p.Name,
		Address:     p.Address,
		RSSI:        p.RSSI,
		Connectable: true,

		ManufacturerData: append([]byte(nil), p.ManufacturerData...),
	}
	for _, s := range p.Services {
		adv.Services = append(adv.Services, s.uuid)
	}
	return adv
}

// PeripheralBuilder builds FakePeripheral instances with a fluent API:
//
//	p := testutils.NewPeripheralBuilder().
//	    WithName("Xbox Wireless Controller").
//	    WithService("1812").
//	    WithCharacteristic("2A4D", "read,notify", nil).
//	    Build()
type PeripheralBuilder struct {
	p *FakePeripheral
}

func NewPeripheralBuilder() *PeripheralBuilder {
	return &PeripheralBuilder{p: &FakePeripheral{
		Name:    DefaultControllerName,
		Address: DefaultControllerAddress,
		RSSI:    -55,
	}}
}

func (b *PeripheralBuilder) WithName(name string) *PeripheralBuilder {
	b.p.Name = name
	return b
}

func (b *PeripheralBuilder) WithAddress(addr string) *PeripheralBuilder {
	b.p.Address = addr
	return b
}

func (b *PeripheralBuilder) WithRSSI(rssi int) *PeripheralBuilder {
	b.p.RSSI = rssi
	return b
}

// WithManufacturerData sets the advertised manufacturer data, company ID first.
func (b *PeripheralBuilder) WithManufacturerData(data []byte) *PeripheralBuilder {
	b.p.ManufacturerData = data
	return b
}

func (b *PeripheralBuilder) WithPasskey(passkey uint32) *PeripheralBuilder {
	b.p.Passkey = &passkey
	return b
}

func (b *PeripheralBuilder) WithSecureLinkHook(hook func(ctx context.Context, link *FakeLink) error) *PeripheralBuilder {
	b.p.OnSecureLink = hook
	return b
}

func (b *PeripheralBuilder) WithUpdateParamsError(err error) *PeripheralBuilder {
	b.p.UpdateParamsErr = err
	return b
}

// WithService adds a service; following characteristics attach to it.
func (b *PeripheralBuilder) WithService(uuid string) *PeripheralBuilder {
	b.p.Services = append(b.p.Services, &fakeServiceConfig{uuid: uuid})
	return b
}

// WithCharacteristic adds a characteristic to the last added service.
// properties is a comma-separated list of "read" and "notify".
func (b *PeripheralBuilder) WithCharacteristic(uuid, properties string, value []byte) *PeripheralBuilder {
	b.lastService().chars = append(b.lastService().chars, &fakeCharConfig{
		uuid:   uuid,
		read:   strings.Contains(properties, "read"),
		notify: strings.Contains(properties, "notify"),
		value:  value,
	})
	return b
}

// WithReadError makes reads of the last added characteristic fail.
func (b *PeripheralBuilder) WithReadError(err error) *PeripheralBuilder {
	b.lastChar().readErr = err
	return b
}

// WithSubscribeError makes subscribing to the last added characteristic fail.
func (b *PeripheralBuilder) WithSubscribeError(err error) *PeripheralBuilder {
	b.lastChar().subscribeErr = err
	return b
}

func (b *PeripheralBuilder) Build() *FakePeripheral {
	return b.p
}

func (b *PeripheralBuilder) lastService() *fakeServiceConfig {
	if len(b.p.Services) == 0 {
		panic("WithCharacteristic: no service added yet, call WithService first")
	}
	return b.p.Services[len(b.p.Services)-1]
}

func (b *PeripheralBuilder) lastChar() *fakeCharConfig {
	svc := b.lastService()
	if len(svc.chars) == 0 {
		panic("no characteristic added yet, call WithCharacteristic first")
	}
	return svc.chars[len(svc.chars)-1]
}

// NewControllerBuilder returns a builder preloaded with the GATT layout of an
// Xbox One controller: GAP, Device Information, Battery and HID.
func NewControllerBuilder() *PeripheralBuilder {
	dec, err := gamepad.NewDecoder(gamepad.XboxOne)
	if err != nil {
		panic(err)
	}
	return NewPeripheralBuilder().
		WithManufacturerData([]byte{0x06, 0x00, 0x03, 0x00, 0x80}).
		WithService(gattdb.GenericAccessService).
		WithCharacteristic(gattdb.DeviceNameChar, "read", []byte(DefaultControllerName)).
		WithCharacteristic(gattdb.AppearanceChar, "read", []byte{0xC4, 0x03}).
		WithCharacteristic(gattdb.PreferredConnParamsChar, "read", []byte{0x06, 0x00, 0x0C, 0x00, 0x00, 0x00, 0x64, 0x00}).
		WithService(gattdb.DeviceInformationService).
		WithCharacteristic(gattdb.ManufacturerNameChar, "read", []byte("Microsoft")).
		WithCharacteristic(gattdb.FirmwareRevisionChar, "read", []byte("5.17.3202.0")).
		WithCharacteristic(gattdb.SerialNumberChar, "read", []byte("3033363030313531\x00")).
		WithService(gattdb.BatteryService).
		WithCharacteristic(gattdb.BatteryLevelChar, "read,notify", []byte{87}).
		WithService(gattdb.HIDService).
		WithCharacteristic(gattdb.HIDInformationChar, "read", []byte{0x11, 0x01, 0x00, 0x02}).
		WithCharacteristic(gattdb.HIDReportMapChar, "read", dec.ReportMap()).
		WithCharacteristic(gattdb.HIDReportChar, "read,notify", make([]byte, 16))
}
