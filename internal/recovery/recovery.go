// Package recovery models the device-mismatch recovery flow: what a client
// walks through when its local crypto engine and the server disagree about
// which device it is. The server only supplies storage primitives; this
// state machine keeps the client-driven flow honest about which moves are
// legal from where.
package recovery

import (
	"fmt"

	"keydepot/pkg/errors"
)

type State string

const (
	StateNormal              State = "normal"
	StateMismatchDetected    State = "mismatch_detected"
	StateRestoringFromBackup State = "restoring_from_backup"
	StateRegenerating        State = "regenerating"
	StateDismissed           State = "dismissed"
	// A regenerated identity invalidates all prior trust; contacts must
	// re-verify before the flow counts as resolved.
	StateNeedsReverification State = "needs_reverification"
	StateResolved            State = "resolved"
)

// transitions is the full set of legal moves. A failed restore drops back
// to MismatchDetected so the user can pick a different path.
var transitions = map[State][]State{
	StateNormal:              {StateMismatchDetected},
	StateMismatchDetected:    {StateRestoringFromBackup, StateRegenerating, StateDismissed},
	StateRestoringFromBackup: {StateResolved, StateMismatchDetected},
	StateRegenerating:        {StateNeedsReverification},
	StateNeedsReverification: {StateResolved},
	StateDismissed:           {StateResolved},
	StateResolved:            {StateMismatchDetected},
}

type Machine struct {
	state State
}

func NewMachine() *Machine {
	return &Machine{state: StateNormal}
}

func (m *Machine) State() State { return m.state }

func (m *Machine) CanTransition(next State) bool {
	for _, s := range transitions[m.state] {
		if s == next {
			return true
		}
	}
	return false
}

func (m *Machine) Transition(next State) error {
	if !m.CanTransition(next) {
		return errors.FailedPrecondition(
			fmt.Sprintf("cannot move from %s to %s", m.state, next))
	}
	m.state = next
	return nil
}

// DetectMismatch flags disagreement between the locally stored device
// identity and what the server reports for the same device_id.
func (m *Machine) DetectMismatch() error { return m.Transition(StateMismatchDetected) }

func (m *Machine) StartRestore() error { return m.Transition(StateRestoringFromBackup) }

func (m *Machine) RestoreSucceeded() error { return m.Transition(StateResolved) }

// RestoreFailed returns to the decision point. The cause is deliberately
// not modeled: wrong password and corrupted blob look identical upstream.
func (m *Machine) RestoreFailed() error { return m.Transition(StateMismatchDetected) }

func (m *Machine) StartRegeneration() error { return m.Transition(StateRegenerating) }

func (m *Machine) RegenerationComplete() error { return m.Transition(StateNeedsReverification) }

func (m *Machine) Reverified() error { return m.Transition(StateResolved) }

func (m *Machine) Dismiss() error { return m.Transition(StateDismissed) }
