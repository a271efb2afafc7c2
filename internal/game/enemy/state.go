// Package enemy implements the per-enemy behavior state machine.
//
// The machine is a pure state-transition component: it owns no physics,
// animation, or audio. Every effect is issued through the collaborator
// interfaces in collaborators.go and every input arrives either through Tick
// or through one of the Handle* notification sinks.
package enemy

import (
	"fmt"
	"strings"
)

// State is an enemy's mutually exclusive behavior state.
type State int

const (
	StateIdle State = iota
	StatePatrol
	StateAlert
	StateChase
	StateAttack
	StateCooldown
	StateStunned
	StateDead
)

var stateNames = [...]string{
	StateIdle:     "idle",
	StatePatrol:   "patrol",
	StateAlert:    "alert",
	StateChase:    "chase",
	StateAttack:   "attack",
	StateCooldown: "cooldown",
	StateStunned:  "stunned",
	StateDead:     "dead",
}

// String returns the lower-case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no transition can leave s.
func (s State) Terminal() bool { return s == StateDead }

// ParseState maps a state name (case-insensitive) to its State.
//
// Postcondition: Returns (state, true) on a known name, or (StateIdle, false).
func ParseState(name string) (State, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range stateNames {
		if s == n {
			return State(i), true
		}
	}
	return StateIdle, false
}

// AllStates returns every state in declaration order.
func AllStates() []State {
	out := make([]State, len(stateNames))
	for i := range stateNames {
		out[i] = State(i)
	}
	return out
}
