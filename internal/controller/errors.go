package controller

import "fmt"

// FailureKind classifies why a Start attempt did not reach Ready.
type FailureKind int

const (
	KindDiscovery FailureKind = iota + 1
	KindLink
	KindPairing
	KindGATT
)

func (k FailureKind) String() string {
	switch k {
	case KindDiscovery:
		return "discovery"
	case KindLink:
		return "link"
	case KindPairing:
		return "pairing"
	case KindGATT:
		return "gatt"
	default:
		return "unknown"
	}
}

// Failure is the typed error returned by Start. The driver is back in Idle
// (or Disconnected, when the peer dropped the link) and Start may be retried.
type Failure struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	if f.Err == nil {
		return fmt.Sprintf("%s failure", f.Kind)
	}
	return fmt.Sprintf("%s failure: %s: %v", f.Kind, f.Op, f.Err)
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Is matches any Failure of the same Kind, so errors.Is(err, ErrLinkFailed) works.
func (f *Failure) Is(target error) bool {
	if f == nil {
		return false
	}
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return f.Kind == t.Kind
}

// Sentinels for errors.Is
var (
	ErrDiscoveryFailed = &Failure{Kind: KindDiscovery}
	ErrLinkFailed      = &Failure{Kind: KindLink}
	ErrPairingFailed   = &Failure{Kind: KindPairing}
	ErrGATTFailed      = &Failure{Kind: KindGATT}
)
