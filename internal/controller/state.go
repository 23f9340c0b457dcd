package controller

// State is a step of the connection lifecycle.
type State int

const (
	Idle State = iota
	Scanning
	Connecting
	Pairing
	Ready
	Disconnected
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Connecting:
		return "connecting"
	case Pairing:
		return "pairing"
	case Ready:
		return "ready"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// StartStatus is the non-error outcome of Start.
type StartStatus int

const (
	StatusConnected StartStatus = iota
	StatusAlreadyConnected
	StatusNotFound
)

func (s StartStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusAlreadyConnected:
		return "already connected"
	case StatusNotFound:
		return "no compatible device found"
	default:
		return "unknown"
	}
}
