package boss

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
)

// Health is the health collaborator contract a Controller needs.
type Health interface {
	OnHealthChanged(fn func(current, max int))
	OnDeath(fn func())
	GrantInvulnerability(seconds float64)
}

// Deps are the collaborators injected into a Controller.
type Deps struct {
	ID     string
	Health Health
	// Presenter and Logger are optional.
	Presenter enemy.Presenter
	Logger    *zap.Logger
}

// Controller escalates a boss through its phases as its health falls.
//
// Invariant: phase is non-decreasing; Dead is terminal.
// Invariant: phase advances at most one step per health-changed event.
//
// The controller is pulled, not pushed: the enemy state machine and the combat
// collaborator read the multiplier queries whenever they need them.
type Controller struct {
	id        string
	cfg       Config
	phase2    Multipliers
	enraged   Multipliers
	health    Health
	presenter enemy.Presenter
	logger    *zap.Logger

	phase     Phase
	lastRatio float64

	observers []func(from, to Phase)
}

// NewController validates cfg and subscribes to the health collaborator's
// health-changed and death notifications.
//
// Precondition: deps.Health must not be nil.
// Postcondition: Returns a Controller in Phase1, or a non-nil error.
func NewController(cfg Config, deps Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Health == nil {
		return nil, fmt.Errorf("boss %q: %w", deps.ID, errors.New("health is required"))
	}
	c := &Controller{
		id:        deps.ID,
		cfg:       cfg,
		phase2:    cfg.Phase2.withDefaults(),
		enraged:   cfg.Enraged.withDefaults(),
		health:    deps.Health,
		presenter: deps.Presenter,
		logger:    deps.Logger,
		phase:     Phase1,
		lastRatio: 1,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	deps.Health.OnHealthChanged(c.HandleHealthChanged)
	deps.Health.OnDeath(c.HandleDeath)
	return c, nil
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Config returns a copy of the controller's phase table.
func (c *Controller) Config() Config { return c.cfg }

// OnPhaseChanged registers fn to be called after every phase transition.
func (c *Controller) OnPhaseChanged(fn func(from, to Phase)) {
	c.observers = append(c.observers, fn)
}

// HandleHealthChanged evaluates the phase thresholds against current/max.
//
// Thresholds are only evaluated when the ratio fell since the previous event,
// and at most one phase step is taken per event, so a single large hit from
// Phase1 lands in Phase2 even when the ratio is already below the enrage
// threshold. A depleting event is left to HandleDeath.
func (c *Controller) HandleHealthChanged(current, max int) {
	if c.phase == Dead || max <= 0 {
		return
	}
	ratio := float64(current) / float64(max)
	prev := c.lastRatio
	c.lastRatio = ratio
	if ratio >= prev || current <= 0 {
		return
	}
	switch {
	case c.phase == Phase1 && ratio <= c.cfg.Phase2HealthPercent:
		c.transition(Phase2)
	case c.phase == Phase2 && ratio <= c.cfg.EnrageHealthPercent:
		c.transition(Enraged)
	}
}

// HandleDeath forces the Dead phase regardless of the health ratio.
func (c *Controller) HandleDeath() {
	if c.phase == Dead {
		return
	}
	c.transition(Dead)
}

// Multipliers returns the multiplier set for the current phase.
func (c *Controller) Multipliers() Multipliers {
	switch c.phase {
	case Phase2:
		return c.phase2
	case Enraged:
		return c.enraged
	default:
		return Neutral
	}
}

// SpeedMultiplier returns the movement speed multiplier for the current phase.
func (c *Controller) SpeedMultiplier() float64 { return c.Multipliers().Speed }

// DamageMultiplier returns the outgoing damage multiplier for the current phase.
func (c *Controller) DamageMultiplier() float64 { return c.Multipliers().Damage }

// CooldownMultiplier returns the attack cooldown multiplier for the current
// phase. It satisfies enemy.CooldownScaler.
func (c *Controller) CooldownMultiplier() float64 { return c.Multipliers().Cooldown }

func (c *Controller) transition(next Phase) {
	prev := c.phase
	c.phase = next
	if next != Dead {
		c.health.GrantInvulnerability(c.cfg.invulnerability())
	}
	if c.presenter != nil {
		if trig := c.cfg.Triggers[next.String()]; trig != "" {
			c.presenter.PlayTrigger(trig)
		}
	}
	c.logger.Debug("boss phase transition",
		zap.String("boss", c.id),
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	for _, fn := range c.observers {
		fn(prev, next)
	}
}
