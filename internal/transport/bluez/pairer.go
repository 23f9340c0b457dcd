package bluez

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/transport"
)

// busConn is the part of *dbus.Conn the pairer uses.
type busConn interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// Pairer pairs devices through BlueZ, serving as the default agent while it does.
type Pairer struct {
	conn    busConn
	adapter string
	agent   *Agent
	logger  *logrus.Logger

	mu         sync.Mutex
	registered bool
}

// NewPairer uses conn for all D-Bus traffic. adapter is the BlueZ adapter name, e.g. "hci0".
func NewPairer(conn busConn, adapter string, logger *logrus.Logger) *Pairer {
	if logger == nil {
		logger = logrus.New()
	}
	if adapter == "" {
		adapter = "hci0"
	}
	return &Pairer{
		conn:    conn,
		adapter: adapter,
		agent:   NewAgent(transport.PairingPolicy{}, logger),
		logger:  logger,
	}
}

// NewSystemPairer connects to the shared system bus.
func NewSystemPairer(adapter string, logger *logrus.Logger) (*Pairer, error) {
	conn, err := dbus.SystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return NewPairer(conn, adapter, logger), nil
}

// DevicePath returns the BlueZ object path of a device on an adapter.
func DevicePath(adapter, address string) dbus.ObjectPath {
	addr := strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(address)), ":", "_")
	return dbus.ObjectPath("/org/bluez/" + adapter + "/dev_" + addr)
}

// Pair bonds with the device at address unless BlueZ already has it paired.
// Challenges raised during pairing are answered with policy.
func (p *Pairer) Pair(ctx context.Context, address string, policy transport.PairingPolicy) error {
	p.agent.SetPolicy(policy)
	if err := p.register(ctx); err != nil {
		return err
	}

	path := DevicePath(p.adapter, address)
	dev := p.conn.Object(BusName, path)

	if v, err := dev.GetProperty(Device1Interface + ".Paired"); err == nil {
		if paired, ok := v.Value().(bool); ok && paired {
			p.logger.WithField("device", path).Debug("Device already paired")
			return nil
		}
	}

	p.logger.WithFields(logrus.Fields{
		"device":  path,
		"passkey": policy.String(),
	}).Info("Pairing with device...")

	call := dev.CallWithContext(ctx, Device1Interface+".Pair", 0)
	if err := pairError(ctx, call.Err); err != nil {
		return err
	}

	if err := dev.SetProperty(Device1Interface+".Trusted", dbus.MakeVariant(true)); err != nil {
		p.logger.WithFields(logrus.Fields{
			"device": path,
			"error":  err,
		}).Warn("Failed to mark device as trusted")
	}

	p.logger.WithField("device", path).Info("Device paired")
	return nil
}

// register exports the agent and makes it the default one, once.
func (p *Pairer) register(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.registered {
		return nil
	}

	if err := p.conn.Export(p.agent, AgentPath, Agent1Interface); err != nil {
		return fmt.Errorf("failed to export pairing agent: %w", err)
	}
	if err := p.conn.Export(introspect.NewIntrospectable(&agentIntrospectData), AgentPath, IntrospectableIface); err != nil {
		return fmt.Errorf("failed to export pairing agent: %w", err)
	}

	mgr := p.conn.Object(BusName, "/org/bluez")
	call := mgr.CallWithContext(ctx, AgentManager1Iface+".RegisterAgent", 0, AgentPath, AgentCapability)
	if call.Err != nil && errorName(call.Err) != errAlreadyExists {
		return fmt.Errorf("failed to register pairing agent: %w", call.Err)
	}
	if call := mgr.CallWithContext(ctx, AgentManager1Iface+".RequestDefaultAgent", 0, AgentPath); call.Err != nil {
		p.logger.WithField("error", call.Err).Warn("Pairing agent is registered but not the default agent")
	}

	p.registered = true
	p.logger.WithField("path", AgentPath).Debug("Pairing agent registered")
	return nil
}

// Close unregisters the agent.
func (p *Pairer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.registered {
		return nil
	}
	p.registered = false

	call := p.conn.Object(BusName, "/org/bluez").Call(AgentManager1Iface+".UnregisterAgent", 0, AgentPath)
	_ = p.conn.Export(nil, AgentPath, Agent1Interface)
	_ = p.conn.Export(nil, AgentPath, IntrospectableIface)
	if call.Err != nil {
		return fmt.Errorf("failed to unregister pairing agent: %w", call.Err)
	}
	return nil
}

// pairError maps a Device1.Pair failure onto transport errors.
func pairError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("pairing interrupted: %w", ctxErr)
	}

	switch name := errorName(err); name {
	case errAlreadyExists:
		return nil
	case errAuthFailed, errAuthRejected, errAuthCanceled, errAuthTimeout, errRejected, errCanceled:
		return fmt.Errorf("%w: %s", transport.ErrAuthFailed, name)
	case errDoesNotExist, errUnknownObject:
		return fmt.Errorf("%w: device unknown to BlueZ", transport.ErrNotConnected)
	default:
		return fmt.Errorf("pairing failed: %w", transport.NormalizeError(err))
	}
}

// errorName returns the D-Bus error name carried by err, if any.
func errorName(err error) string {
	var derr dbus.Error
	if errors.As(err, &derr) {
		return derr.Name
	}
	var pderr *dbus.Error
	if errors.As(err, &pderr) && pderr != nil {
		return pderr.Name
	}
	return ""
}
