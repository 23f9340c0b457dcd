package tinyble

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/transport"
	"tinygo.org/x/bluetooth"
)

// maxAttributeLen is the largest value an ATT read can return.
const maxAttributeLen = 512

// peripheral is the part of bluetooth.Device a link uses.
type peripheral interface {
	DiscoverServices(uuids []bluetooth.UUID) ([]bluetooth.DeviceService, error)
	Disconnect() error
}

type link struct {
	address string
	dev     peripheral
	owner   *Transport
	logger  *logrus.Logger

	mu        sync.Mutex
	callbacks []func()
	closed    bool
}

func newLink(address string, dev peripheral, owner *Transport) *link {
	return &link{address: address, dev: dev, owner: owner, logger: owner.logger}
}

func (l *link) Address() string { return l.address }

// SecureLink pairs through the platform agent when there is one. Without an
// agent the passkey cannot be applied, so the link is refused unless the policy
// opts into the CoreBluetooth or WinRT pairing prompt.
func (l *link) SecureLink(ctx context.Context, policy transport.PairingPolicy) error {
	if l.isClosed() {
		return transport.ErrNotConnected
	}
	if l.owner.pairer != nil {
		return l.owner.pairer.Pair(ctx, l.address, policy)
	}
	if !policy.PlatformPairing {
		return fmt.Errorf("fixed-passkey pairing without a pairing agent: %w", transport.ErrUnsupported)
	}
	l.logger.WithField("address", l.address).Warn("Passkey not enforced, pairing is left to the system prompt")
	return ctx.Err()
}

func (l *link) Service(uuid string) (transport.Service, error) {
	if l.isClosed() {
		return nil, transport.ErrNotConnected
	}
	id, err := parseUUID(uuid)
	if err != nil {
		return nil, err
	}

	notFound := &transport.NotFoundError{Resource: "service", UUIDs: []string{uuid}}
	svcs, err := l.dev.DiscoverServices([]bluetooth.UUID{id})
	if err != nil {
		if err := transport.NormalizeError(err); errors.Is(err, transport.ErrNotConnected) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", notFound, err)
	}
	if len(svcs) == 0 {
		return nil, notFound
	}
	return &service{link: l, svc: svcs[0], uuid: gattdb.NormalizeUUID(uuid)}, nil
}

// UpdateConnectionParams is not exposed by tinygo-bluetooth after connecting.
func (l *link) UpdateConnectionParams(transport.ConnParams) error {
	return transport.ErrUnsupported
}

func (l *link) OnDisconnect(cb func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		cb()
		return
	}
	l.callbacks = append(l.callbacks, cb)
	l.mu.Unlock()
}

func (l *link) Disconnect() error {
	if l.isClosed() {
		return nil
	}
	l.logger.WithField("address", l.address).Info("Disconnecting BLE device...")
	l.owner.links.Del(l.address)
	err := l.dev.Disconnect()
	l.fire()
	return transport.NormalizeError(err)
}

// fire marks the link closed and runs the disconnect callbacks once.
func (l *link) fire() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	cbs := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

func (l *link) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

type service struct {
	link *link
	svc  bluetooth.DeviceService
	uuid string
}

func (s *service) UUID() string { return s.uuid }

func (s *service) Characteristic(uuid string) (transport.Characteristic, error) {
	id, err := parseUUID(uuid)
	if err != nil {
		return nil, err
	}
	notFound := &transport.NotFoundError{Resource: "characteristic", UUIDs: []string{s.uuid, uuid}}
	chars, err := s.svc.DiscoverCharacteristics([]bluetooth.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", notFound, err)
	}
	if len(chars) == 0 {
		return nil, notFound
	}
	return &characteristic{link: s.link, char: chars[0], uuid: gattdb.NormalizeUUID(uuid)}, nil
}

type characteristic struct {
	link *link
	char bluetooth.DeviceCharacteristic
	uuid string
}

func (c *characteristic) UUID() string { return c.uuid }

// CanNotify is optimistic: tinygo-bluetooth does not expose characteristic
// properties on every platform, so Subscribe reports the real outcome.
func (c *characteristic) CanNotify() bool { return true }

func (c *characteristic) Read() ([]byte, error) {
	if c.link.isClosed() {
		return nil, transport.ErrNotConnected
	}
	buf := make([]byte, maxAttributeLen)
	n, err := c.char.Read(buf)
	if err != nil {
		return nil, transport.NormalizeError(err)
	}
	return buf[:n], nil
}

func (c *characteristic) Subscribe(cb func(data []byte)) error {
	if c.link.isClosed() {
		return transport.ErrNotConnected
	}
	return transport.NormalizeError(c.char.EnableNotifications(cb))
}
