package goble

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/groutine"
	"github.com/srg/blepad/internal/transport"
)

// link is a go-ble client connection.
type link struct {
	address string
	client  gattClient
	profile *ble.Profile
	logger  *logrus.Logger

	mu        sync.Mutex
	callbacks []func()
	closed    bool
	stop      chan struct{}
}

func newLink(address string, client gattClient, profile *ble.Profile, logger *logrus.Logger) *link {
	l := &link{
		address: address,
		client:  client,
		profile: profile,
		logger:  logger,
		stop:    make(chan struct{}),
	}
	groutine.Go(context.Background(), "goble-disconnect-monitor", l.monitor)
	return l
}

// monitor waits for go-ble to report the link gone.
func (l *link) monitor(ctx context.Context) {
	select {
	case <-l.client.Disconnected():
		l.logger.WithFields(logrus.Fields{
			"address":   l.address,
			"goroutine": groutine.GetName(ctx),
		}).Debug("go-ble reported disconnection")
		l.fire()
	case <-l.stop:
	}
}

func (l *link) Address() string { return l.address }

// SecureLink cannot apply the passkey: go-ble has no pairing API. CoreBluetooth
// pairs on the first encrypted access through the system prompt, which is
// accepted only when the policy opts into platform pairing. The Linux HCI stack
// rejects every pairing request.
func (l *link) SecureLink(ctx context.Context, policy transport.PairingPolicy) error {
	if l.isClosed() {
		return transport.ErrNotConnected
	}
	if !platformPairs || !policy.PlatformPairing {
		return fmt.Errorf("fixed-passkey pairing on the go-ble backend: %w", transport.ErrUnsupported)
	}
	l.logger.WithField("address", l.address).Warn("Passkey not enforced, pairing is left to the system prompt")
	return ctx.Err()
}

func (l *link) Service(uuid string) (transport.Service, error) {
	if l.isClosed() {
		return nil, transport.ErrNotConnected
	}
	for _, svc := range l.profile.Services {
		if gattdb.Equal(svc.UUID.String(), uuid) {
			return &service{link: l, svc: svc}, nil
		}
	}
	return nil, &transport.NotFoundError{Resource: "service", UUIDs: []string{uuid}}
}

// UpdateConnectionParams is not exposed by go-ble clients.
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
	err := l.client.CancelConnection()
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
	close(l.stop)
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
	svc  *ble.Service
}

func (s *service) UUID() string { return gattdb.NormalizeUUID(s.svc.UUID.String()) }

func (s *service) Characteristic(uuid string) (transport.Characteristic, error) {
	for _, c := range s.svc.Characteristics {
		if gattdb.Equal(c.UUID.String(), uuid) {
			return &characteristic{link: s.link, char: c}, nil
		}
	}
	return nil, &transport.NotFoundError{Resource: "characteristic", UUIDs: []string{s.UUID(), uuid}}
}

type characteristic struct {
	link *link
	char *ble.Characteristic
}

func (c *characteristic) UUID() string { return gattdb.NormalizeUUID(c.char.UUID.String()) }

func (c *characteristic) CanNotify() bool {
	return c.char.Property&ble.CharNotify != 0
}

func (c *characteristic) Read() ([]byte, error) {
	if c.link.isClosed() {
		return nil, transport.ErrNotConnected
	}
	data, err := c.link.client.ReadCharacteristic(c.char)
	if err != nil {
		return nil, transport.NormalizeError(err)
	}
	return data, nil
}

func (c *characteristic) Subscribe(cb func(data []byte)) error {
	if c.link.isClosed() {
		return transport.ErrNotConnected
	}
	return transport.NormalizeError(c.link.client.Subscribe(c.char, false, cb))
}
