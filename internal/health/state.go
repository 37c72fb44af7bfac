// Package health tracks gateway reachability as a small state machine.
// Refresh outcomes drive it; the dashboard reads it to explain an empty
// conversation list.
package health

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pedeai/pedeai/internal/bus"
)

// State represents the gateway health as seen from this daemon.
type State string

const (
	Starting State = "STARTING"
	Ready    State = "READY"
	Degraded State = "DEGRADED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Starting: {Ready, Degraded},
	Ready:    {Degraded},
	Degraded: {Ready},
}

// Machine tracks gateway health and enforces transitions.
type Machine struct {
	mu         sync.RWMutex
	current    State
	lastError  string
	lastChange time.Time
	bus        *bus.Bus
}

// NewMachine creates a machine starting in Starting state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current:    Starting,
		lastChange: time.Now(),
		bus:        b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// LastError returns the failure message that caused the last degradation,
// empty when healthy.
func (m *Machine) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastError
}

// LastChange returns when the machine last changed state.
func (m *Machine) LastChange() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastChange
}

// Observe feeds one gateway round-trip outcome into the machine.
func (m *Machine) Observe(err error) {
	if err == nil {
		_ = m.transition(Ready, "")
		return
	}
	_ = m.transition(Degraded, err.Error())
}

// transition attempts to move to a new state. Staying put is a no-op;
// an invalid move returns an error.
func (m *Machine) transition(to State, errMsg string) error {
	m.mu.Lock()
	if m.current == to {
		m.lastError = errMsg
		m.mu.Unlock()
		return nil
	}
	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		from := m.current
		m.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	from := m.current
	m.current = to
	m.lastError = errMsg
	m.lastChange = time.Now()
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:    bus.KindHealthChanged,
			Payload: Change{From: from, To: to, Error: errMsg},
		})
	}
	return nil
}

// Change is the payload for health change events.
type Change struct {
	From  State
	To    State
	Error string
}
