// Package transport defines the narrow BLE central capability the controller
// drives. Concrete backends live in subpackages and wrap a real BLE stack.
package transport

import (
	"context"
	"time"
)

// Advertisement is a single advertisement observed during a scan.
// It is only valid for the duration of the scan callback that produced it;
// backends hand out copies.
type Advertisement struct {
	Name             string
	Address          string
	RSSI             int
	Connectable      bool
	Services         []string
	ManufacturerData []byte
}

// NameFilter decides whether an advertised local name is a candidate.
type NameFilter func(name string) bool

// ScanOptions configures a single discovery run.
type ScanOptions struct {
	// Interval and Window are passed to the radio when the backend supports it.
	Interval time.Duration
	Window   time.Duration

	// AllowDuplicates reports every advertisement instead of the first per address.
	AllowDuplicates bool

	// Observe, when set, sees every advertisement that survives duplicate
	// filtering, matching or not. It runs on the scan goroutine.
	Observe func(adv Advertisement)
}

// Transport is a BLE central capable of finding and connecting to a peripheral.
type Transport interface {
	// Scan runs until the first advertisement whose name passes match, or until
	// ctx is done. A nil advertisement with a nil error means nothing matched.
	Scan(ctx context.Context, opts ScanOptions, match NameFilter) (*Advertisement, error)

	// Connect opens a link to the peripheral previously seen at address.
	// It blocks until the underlying stack resolves the attempt.
	Connect(ctx context.Context, address string) (Link, error)

	Close() error
}

// Link is an open connection to one peripheral. A Link is exclusively owned by
// whoever called Connect and must not be used after Disconnect or after the
// disconnect callback fires.
type Link interface {
	Address() string

	// SecureLink pairs and bonds with the peripheral using the given policy.
	SecureLink(ctx context.Context, policy PairingPolicy) error

	// Service resolves a primary service by UUID. A missing service yields a
	// *NotFoundError.
	Service(uuid string) (Service, error)

	// UpdateConnectionParams asks the stack for new link timing. Backends that
	// cannot do this return ErrUnsupported.
	UpdateConnectionParams(params ConnParams) error

	// OnDisconnect registers the callback invoked once when the link drops,
	// whether remotely or through Disconnect.
	OnDisconnect(cb func())

	Disconnect() error
}

// Service is a resolved GATT service.
type Service interface {
	UUID() string
	Characteristic(uuid string) (Characteristic, error)
}

// Characteristic is a resolved GATT characteristic.
type Characteristic interface {
	UUID() string
	CanNotify() bool
	Read() ([]byte, error)

	// Subscribe enables notifications. cb runs on a transport goroutine and
	// must not block.
	Subscribe(cb func(data []byte)) error
}
