// ABOUTME: Explicit connection state machine for a gateway session
// ABOUTME: Transition table rejects illegal moves such as identifying before the greeting

package gateway

import (
	"errors"
	"fmt"
)

// State is the connection phase of a session.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingGreeting
	StateIdentifying
	StateReady
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingGreeting:
		return "awaiting_greeting"
	case StateIdentifying:
		return "identifying"
	case StateReady:
		return "ready"
	case StateReconnecting:
		return "reconnecting"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrIllegalTransition is returned for transitions missing from the table.
var ErrIllegalTransition = errors.New("illegal state transition")

// transitions lists every legal move. Close or error from any socket-owning
// state returns to Disconnected.
var transitions = map[State][]State{
	StateDisconnected:     {StateConnecting, StateReconnecting},
	StateConnecting:       {StateAwaitingGreeting, StateDisconnected},
	StateAwaitingGreeting: {StateIdentifying, StateDisconnected},
	StateIdentifying:      {StateReady, StateDisconnected},
	StateReady:            {StateDisconnected},
	StateReconnecting:     {StateConnecting},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// machine holds the current state and notifies an optional observer on change.
type machine struct {
	state    State
	observer func(from, to State)
}

func (m *machine) transition(next State) error {
	if !m.state.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, next)
	}
	from := m.state
	m.state = next
	if m.observer != nil {
		m.observer(from, next)
	}
	return nil
}
