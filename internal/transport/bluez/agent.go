// Package bluez drives BlueZ pairing over D-Bus with a fixed-passkey agent.
package bluez

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/sirupsen/logrus"
	"github.com/srg/blepad/internal/transport"
)

const (
	BusName             = "org.bluez"
	Agent1Interface     = "org.bluez.Agent1"
	AgentManager1Iface  = "org.bluez.AgentManager1"
	Device1Interface    = "org.bluez.Device1"
	IntrospectableIface = "org.freedesktop.DBus.Introspectable"
	AgentPath           = dbus.ObjectPath("/org/blepad/agent")
	AgentCapability     = "KeyboardDisplay"
)

// BlueZ error names the pairing flow distinguishes.
const (
	errRejected      = "org.bluez.Error.Rejected"
	errCanceled      = "org.bluez.Error.Canceled"
	errAlreadyExists = "org.bluez.Error.AlreadyExists"
	errAuthFailed    = "org.bluez.Error.AuthenticationFailed"
	errAuthRejected  = "org.bluez.Error.AuthenticationRejected"
	errAuthCanceled  = "org.bluez.Error.AuthenticationCanceled"
	errAuthTimeout   = "org.bluez.Error.AuthenticationTimeout"
	errDoesNotExist  = "org.bluez.Error.DoesNotExist"
	errUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
)

var agentIntrospectData = introspect.Node{
	Name: string(AgentPath),
	Interfaces: []introspect.Interface{
		introspect.IntrospectData,
		{
			Name: Agent1Interface,
			Methods: []introspect.Method{
				{Name: "Release"},
				{Name: "RequestPinCode", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "pincode", Type: "s", Direction: "out"},
				}},
				{Name: "DisplayPinCode", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "pincode", Type: "s", Direction: "in"},
				}},
				{Name: "RequestPasskey", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "passkey", Type: "u", Direction: "out"},
				}},
				{Name: "DisplayPasskey", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "passkey", Type: "u", Direction: "in"},
					{Name: "entered", Type: "q", Direction: "in"},
				}},
				{Name: "RequestConfirmation", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "passkey", Type: "u", Direction: "in"},
				}},
				{Name: "RequestAuthorization", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
				}},
				{Name: "AuthorizeService", Args: []introspect.Arg{
					{Name: "device", Type: "o", Direction: "in"},
					{Name: "uuid", Type: "s", Direction: "in"},
				}},
				{Name: "Cancel"},
			},
		},
	},
}

// Agent answers BlueZ pairing requests with a PairingPolicy.
// Its exported methods form the org.bluez.Agent1 interface.
type Agent struct {
	mu     sync.Mutex
	policy transport.PairingPolicy
	logger *logrus.Logger
}

func NewAgent(policy transport.PairingPolicy, logger *logrus.Logger) *Agent {
	if logger == nil {
		logger = logrus.New()
	}
	return &Agent{policy: policy, logger: logger}
}

// SetPolicy replaces the policy used for subsequent requests.
func (a *Agent) SetPolicy(policy transport.PairingPolicy) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.policy = policy
}

func (a *Agent) currentPolicy() transport.PairingPolicy {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.policy
}

func (a *Agent) Release() *dbus.Error {
	a.logger.Debug("Pairing agent released by BlueZ")
	return nil
}

func (a *Agent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	a.logger.WithField("device", device).Debug("Agent: PIN code requested")
	return a.currentPolicy().String(), nil
}

func (a *Agent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	if !a.currentPolicy().ConfirmPasskeyString(pincode) {
		a.logger.WithField("device", device).Warn("Agent: displayed PIN code does not match the pairing passkey")
		return rejected("pin code mismatch")
	}
	return nil
}

func (a *Agent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	a.logger.WithField("device", device).Debug("Agent: passkey requested")
	return a.currentPolicy().RequestPasskey(), nil
}

func (a *Agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	a.logger.WithFields(logrus.Fields{
		"device":  device,
		"entered": entered,
	}).Debug("Agent: passkey displayed")
	return nil
}

func (a *Agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	if !a.currentPolicy().ConfirmPasskey(passkey) {
		a.logger.WithFields(logrus.Fields{
			"device":  device,
			"passkey": passkey,
		}).Warn("Agent: rejecting pairing confirmation")
		return rejected("passkey mismatch")
	}
	a.logger.WithField("device", device).Debug("Agent: pairing confirmation accepted")
	return nil
}

func (a *Agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	a.logger.WithField("device", device).Debug("Agent: authorization accepted")
	return nil
}

func (a *Agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	a.logger.WithFields(logrus.Fields{
		"device": device,
		"uuid":   uuid,
	}).Debug("Agent: service authorized")
	return nil
}

func (a *Agent) Cancel() *dbus.Error {
	a.logger.Debug("Agent: pairing request canceled")
	return nil
}

func rejected(reason string) *dbus.Error {
	return dbus.NewError(errRejected, []interface{}{reason})
}
