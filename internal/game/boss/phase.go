// Package boss layers monotonic phase escalation on top of an enemy's
// health and exposes the per-phase multipliers its behavior reads.
package boss

import (
	"fmt"
	"strings"
)

// Phase is a boss encounter phase. Phases are ordered and never regress.
type Phase int

const (
	Phase1 Phase = iota
	Phase2
	Enraged
	Dead
)

var phaseNames = [...]string{
	Phase1:  "phase1",
	Phase2:  "phase2",
	Enraged: "enraged",
	Dead:    "dead",
}

// String returns the lower-case phase name used in content files and logs.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// ParsePhase resolves a case-insensitive phase name.
//
// Postcondition: Returns (phase, true) on a match, (Phase1, false) otherwise.
func ParsePhase(name string) (Phase, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), true
		}
	}
	return Phase1, false
}

// Multipliers scale a boss's movement speed, outgoing damage and attack cooldown.
type Multipliers struct {
	Speed    float64 `yaml:"speed"`
	Damage   float64 `yaml:"damage"`
	Cooldown float64 `yaml:"cooldown"`
}

// Neutral is the identity multiplier set used in Phase1 and Dead.
var Neutral = Multipliers{Speed: 1, Damage: 1, Cooldown: 1}

// withDefaults replaces unset (zero) fields with 1.0.
func (m Multipliers) withDefaults() Multipliers {
	if m.Speed == 0 {
		m.Speed = 1
	}
	if m.Damage == 0 {
		m.Damage = 1
	}
	if m.Cooldown == 0 {
		m.Cooldown = 1
	}
	return m
}

func (m Multipliers) validate(label string) []string {
	var errs []string
	if m.Speed < 0 {
		errs = append(errs, label+".speed must not be negative")
	}
	if m.Damage < 0 {
		errs = append(errs, label+".damage must not be negative")
	}
	if m.Cooldown < 0 {
		errs = append(errs, label+".cooldown must not be negative")
	}
	return errs
}
