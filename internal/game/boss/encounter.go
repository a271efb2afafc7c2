package boss

import (
	"fmt"

	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
)

// EncounterHealth is a health collaborator usable by both layers of an encounter.
type EncounterHealth interface {
	enemy.HealthEvents
	Health
}

// Encounter is a boss: an enemy state machine whose cooldowns are scaled by a
// phase controller fed from the same health collaborator.
type Encounter struct {
	Machine *enemy.Machine
	Phases  *Controller
}

// NewEncounter builds the phase controller and then the state machine, with
// the controller installed as the machine's cooldown scaler.
//
// Precondition: health must not be nil; deps.Health and deps.Cooldown are
// overwritten.
// Postcondition: Returns an Encounter in (StateIdle, Phase1), or a non-nil error.
func NewEncounter(tmpl enemy.Template, cfg Config, health EncounterHealth, deps enemy.Deps) (*Encounter, error) {
	if health == nil {
		return nil, fmt.Errorf("boss %q: health is required", deps.ID)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	ctrl, err := NewController(cfg, Deps{
		ID:        deps.ID,
		Health:    health,
		Presenter: deps.Presenter,
		Logger:    deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("boss %q: %w", deps.ID, err)
	}
	deps.Health = health
	deps.Cooldown = ctrl
	m, err := enemy.NewMachine(tmpl, deps)
	if err != nil {
		return nil, err
	}
	return &Encounter{Machine: m, Phases: ctrl}, nil
}

// Tick advances the underlying state machine.
func (e *Encounter) Tick(dt float64) { e.Machine.Tick(dt) }
