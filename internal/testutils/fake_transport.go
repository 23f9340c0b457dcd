package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/srg/blepad/internal/gattdb"
	"github.com/srg/blepad/internal/transport"
)

// FakeTransport is an in-memory transport.Transport serving peripherals built
// with PeripheralBuilder. It is safe for concurrent use.
type FakeTransport struct {
	mu          sync.Mutex
	peripherals []*FakePeripheral

	// ScanErr and ConnectErr make the next calls fail.
	ScanErr    error
	ConnectErr error

	scans    int
	connects int
	links    []*FakeLink
	closed   bool
}

func NewFakeTransport(peripherals ...*FakePeripheral) *FakeTransport {
	return &FakeTransport{peripherals: peripherals}
}

// AddPeripheral makes p visible to later scans.
func (t *FakeTransport) AddPeripheral(p *FakePeripheral) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peripherals = append(t.peripherals, p)
}

// RemovePeripherals hides every peripheral from later scans.
func (t *FakeTransport) RemovePeripherals() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peripherals = nil
}

// Scan returns the first advertising peripheral whose name matches. With no
// match it waits for ctx, like a radio that hears nothing until the timeout.
func (t *FakeTransport) Scan(ctx context.Context, opts transport.ScanOptions, match transport.NameFilter) (*transport.Advertisement, error) {
	t.mu.Lock()
	t.scans++
	if err := t.ScanErr; err != nil {
		t.mu.Unlock()
		return nil, err
	}
	peripherals := append([]*FakePeripheral(nil), t.peripherals...)
	t.mu.Unlock()

	for _, p := range peripherals {
		adv := p.Advertisement()
		if opts.Observe != nil {
			opts.Observe(adv)
		}
		if match != nil && match(p.Name) {
			return &adv, nil
		}
	}

	<-ctx.Done()
	return nil, nil
}

func (t *FakeTransport) Connect(ctx context.Context, address string) (transport.Link, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects++

	if t.ConnectErr != nil {
		return nil, t.ConnectErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, p := range t.peripherals {
		if strings.EqualFold(p.Address, address) {
			link := newFakeLink(p)
			t.links = append(t.links, link)
			return link, nil
		}
	}
	return nil, fmt.Errorf("device %s not in range", address)
}

func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Scans returns how many scans were issued.
func (t *FakeTransport) Scans() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scans
}

// Connects returns how many connect attempts were made.
func (t *FakeTransport) Connects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connects
}

// LastLink returns the most recently opened link, or nil.
func (t *FakeTransport) LastLink() *FakeLink {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.links) == 0 {
		return nil
	}
	return t.links[len(t.links)-1]
}

func (t *FakeTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// FakeLink is a transport.Link over a FakePeripheral.
type FakeLink struct {
	peripheral *FakePeripheral

	mu           sync.Mutex
	connected    bool
	secured      bool
	policy       transport.PairingPolicy
	onDisconnect []func()
	updates      []transport.ConnParams
	subscribers  map[string]func([]byte) // keyed by service/char
}

func newFakeLink(p *FakePeripheral) *FakeLink {
	return &FakeLink{peripheral: p, connected: true, subscribers: map[string]func([]byte){}}
}

func (l *FakeLink) Address() string { return l.peripheral.Address }

// SecureLink runs the peripheral's pairing hook, if any, then checks the passkey.
func (l *FakeLink) SecureLink(ctx context.Context, policy transport.PairingPolicy) error {
	if hook := l.peripheral.OnSecureLink; hook != nil {
		if err := hook(ctx, l); err != nil {
			return err
		}
	}
	if !l.Connected() {
		return transport.ErrNotConnected
	}
	if want := l.peripheral.Passkey; want != nil && !policy.ConfirmPasskey(*want) {
		return fmt.Errorf("%w: passkey mismatch", transport.ErrAuthFailed)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.secured = true
	l.policy = policy
	return nil
}

func (l *FakeLink) Service(uuid string) (transport.Service, error) {
	if !l.Connected() {
		return nil, transport.ErrNotConnected
	}
	for _, svc := range l.peripheral.Services {
		if gattdb.Equal(svc.uuid, uuid) {
			return &fakeService{link: l, svc: svc}, nil
		}
	}
	return nil, &transport.NotFoundError{Resource: "service", UUIDs: []string{uuid}}
}

func (l *FakeLink) UpdateConnectionParams(params transport.ConnParams) error {
	if err := l.peripheral.UpdateParamsErr; err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates = append(l.updates, params)
	return nil
}

func (l *FakeLink) OnDisconnect(cb func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDisconnect = append(l.onDisconnect, cb)
}

func (l *FakeLink) Disconnect() error {
	l.drop()
	return nil
}

// SimulateDisconnect drops the link as if the peripheral went away.
func (l *FakeLink) SimulateDisconnect() {
	l.drop()
}

func (l *FakeLink) drop() {
	l.mu.Lock()
	if !l.connected {
		l.mu.Unlock()
		return
	}
	l.connected = false
	cbs := append([]func(){}, l.onDisconnect...)
	l.mu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

func (l *FakeLink) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *FakeLink) Secured() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.secured
}

// ParamUpdates returns the connection parameter updates requested so far.
func (l *FakeLink) ParamUpdates() []transport.ConnParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transport.ConnParams(nil), l.updates...)
}

// Subscribed reports whether notifications are enabled on the characteristic.
func (l *FakeLink) Subscribed(service, char string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.subscribers[subscriptionKey(service, char)]
	return ok
}

// Notify delivers data to the subscriber of the characteristic, synchronously.
func (l *FakeLink) Notify(service, char string, data []byte) error {
	l.mu.Lock()
	cb, ok := l.subscribers[subscriptionKey(service, char)]
	connected := l.connected
	l.mu.Unlock()

	if !connected {
		return transport.ErrNotConnected
	}
	if !ok {
		return fmt.Errorf("no subscriber for %s/%s", service, char)
	}
	cb(data)
	return nil
}

func subscriptionKey(service, char string) string {
	return gattdb.NormalizeUUID(service) + "/" + gattdb.NormalizeUUID(char)
}

type fakeService struct {
	link *FakeLink
	svc  *fakeServiceConfig
}

func (s *fakeService) UUID() string { return s.svc.uuid }

func (s *fakeService) Characteristic(uuid string) (transport.Characteristic, error) {
	for _, c := range s.svc.chars {
		if gattdb.Equal(c.uuid, uuid) {
			return &fakeCharacteristic{link: s.link, service: s.svc.uuid, cfg: c}, nil
		}
	}
	return nil, &transport.NotFoundError{Resource: "characteristic", UUIDs: []string{s.svc.uuid, uuid}}
}

type fakeCharacteristic struct {
	link    *FakeLink
	service string
	cfg     *fakeCharConfig
}

func (c *fakeCharacteristic) UUID() string { return c.cfg.uuid }

func (c *fakeCharacteristic) CanNotify() bool { return c.cfg.notify }

func (c *fakeCharacteristic) Read() ([]byte, error) {
	if !c.link.Connected() {
		return nil, transport.ErrNotConnected
	}
	if c.cfg.readErr != nil {
		return nil, c.cfg.readErr
	}
	if !c.cfg.read {
		return nil, fmt.Errorf("characteristic %s does not support read", c.cfg.uuid)
	}
	return append([]byte(nil), c.cfg.value...), nil
}

func (c *fakeCharacteristic) Subscribe(cb func([]byte)) error {
	if !c.link.Connected() {
		return transport.ErrNotConnected
	}
	if c.cfg.subscribeErr != nil {
		return c.cfg.subscribeErr
	}
	if !c.cfg.notify {
		return fmt.Errorf("characteristic %s does not support notify", c.cfg.uuid)
	}
	c.link.mu.Lock()
	defer c.link.mu.Unlock()
	c.link.subscribers[subscriptionKey(c.service, c.cfg.uuid)] = cb
	return nil
}
