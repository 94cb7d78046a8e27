package status

import (
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/huddle/internal/bus"
)

// State is the lifecycle state of a live snapshot subscription.
type State string

const (
	Idle        State = "IDLE"
	Subscribing State = "SUBSCRIBING"
	Live        State = "LIVE"
	Degraded    State = "DEGRADED"
	Stopped     State = "STOPPED"
)

// validTransitions defines allowed state transitions. Stopped is terminal.
var validTransitions = map[State][]State{
	Idle:        {Subscribing, Stopped},
	Subscribing: {Live, Degraded, Stopped},
	Live:        {Degraded, Stopped},
	Degraded:    {Subscribing, Live, Stopped},
}

// Machine tracks and enforces subscription state transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine in the Idle state. b may be nil.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Idle,
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state, publishing a bus.SyncState event.
// Moving to the current state is a no-op.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == to {
		return nil
	}
	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.bus.Publish(bus.NewEvent(bus.SyncState, StateChange{From: from, To: to}))
	return nil
}

// StateChange is the payload of bus.SyncState events.
type StateChange struct {
	From State
	To   State
}
