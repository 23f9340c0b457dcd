package gamepad

import (
	"sync"
	"time"
)

// State is the shared snapshot of one connection. The notification path
// writes through Apply; any number of readers call Snapshot.
//
// Every Begin and Reset starts a new generation. Apply only accepts reports
// tagged with the current one, so a notification racing a disconnect cannot
// write into the cleared snapshot.
type State struct {
	mu   sync.Mutex
	snap Snapshot
	gen  uint64
	now  func() time.Time
}

func NewState() *State {
	return &State{now: time.Now}
}

// Apply merges a decoded report from generation gen and reports whether it was
// taken. Groups absent from r keep their previous value.
func (s *State) Apply(gen uint64, r Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return false
	}

	if r.Sticks != nil {
		s.snap.Axes.Left = r.Sticks.Left
		s.snap.Axes.Right = r.Sticks.Right
	}
	if r.Triggers != nil {
		s.snap.Axes.Brake = r.Triggers.Brake
		s.snap.Axes.Throttle = r.Triggers.Throttle
	}
	if r.LT != nil {
		s.snap.Buttons.Triggers.LT = *r.LT
	}
	if r.RT != nil {
		s.snap.Buttons.Triggers.RT = *r.RT
	}
	if r.Dpad != nil {
		s.snap.Buttons.Dpad = *r.Dpad
	}
	if r.Common != nil {
		s.snap.Buttons.Common = *r.Common
	}
	if r.Misc != nil {
		s.snap.Buttons.Misc = *r.Misc
	}
	if r.Battery != nil {
		s.snap.Battery = BatteryLevel{Value: *r.Battery, Valid: true}
	}

	s.snap.Reports++
	s.snap.UpdatedAt = s.now()
	return true
}

// Begin starts a new connection of the given type with default readings and
// returns the generation its reports must carry.
func (s *State) Begin(t GamepadType) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.snap = Snapshot{Type: t, Debug: s.snap.Debug}
	return s.gen
}

// Reset drops every decoded reading. The debug switch survives; it belongs to
// the operator, not the connection.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.snap = Snapshot{Debug: s.snap.Debug}
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *State) SetDebug(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Debug = on
}

// ToggleDebug flips the debug switch and returns the new value.
func (s *State) ToggleDebug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Debug = !s.snap.Debug
	return s.snap.Debug
}

func (s *State) Debug() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Debug
}
