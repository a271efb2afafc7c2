package enemy

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arpgcore/internal/game/dice"
)

// Deps are the collaborators injected into a Machine at construction time.
type Deps struct {
	// ID labels the enemy in logs and observer callbacks.
	ID string
	// Mover is required when the template can move.
	Mover   Mover
	Locator Locator
	Combat  Combat
	Health  HealthEvents
	// Presenter, Cooldown, Random, and Logger are optional.
	Presenter Presenter
	Cooldown  CooldownScaler
	Random    dice.Source
	Logger    *zap.Logger
}

// Machine is one enemy's behavior state machine.
//
// Invariant: once dead is true the state is StateDead and never changes.
// Invariant: stunTimer > 0 only while the state is StateStunned.
//
// A Machine is not safe for concurrent use; it is owned by its entity and
// driven from a single simulation loop.
type Machine struct {
	id   string
	tmpl Template

	mover     Mover
	locator   Locator
	combat    Combat
	presenter Presenter
	cooldown  CooldownScaler
	rng       dice.Source
	logger    *zap.Logger

	triggers [len(stateNames)]string
	clips    [len(stateNames)]string

	state       State
	stateTimer  float64
	stunTimer   float64
	target      Target
	dead        bool
	deadElapsed float64

	observers []func(from, to State)
}

// NewMachine builds a Machine from tmpl and subscribes it to its collaborators'
// damage, death, and attack-complete notifications.
//
// Precondition: tmpl must pass Validate.
// Postcondition: Returns a Machine in StateIdle with a random idle timer in
// [IdleMin, IdleMax], or an error naming every missing required collaborator.
func NewMachine(tmpl Template, deps Deps) (*Machine, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	var missing []error
	if deps.Locator == nil {
		missing = append(missing, errors.New("locator is required"))
	}
	if deps.Combat == nil {
		missing = append(missing, errors.New("combat is required"))
	}
	if deps.Health == nil {
		missing = append(missing, errors.New("health is required"))
	}
	if tmpl.CanMove && deps.Mover == nil {
		missing = append(missing, errors.New("mover is required for a mobile enemy"))
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("enemy %q (%s): %w", deps.ID, tmpl.ID, errors.Join(missing...))
	}

	m := &Machine{
		id:        deps.ID,
		tmpl:      tmpl,
		mover:     deps.Mover,
		locator:   deps.Locator,
		combat:    deps.Combat,
		presenter: deps.Presenter,
		cooldown:  deps.Cooldown,
		rng:       deps.Random,
		logger:    deps.Logger,
	}
	if m.rng == nil {
		m.rng = dice.NewCryptoSource()
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	for name, trig := range tmpl.Animations {
		if s, ok := ParseState(name); ok {
			m.triggers[s] = trig
		}
	}
	for name, clip := range tmpl.Sounds {
		if s, ok := ParseState(name); ok {
			m.clips[s] = clip
		}
	}

	deps.Health.OnDamageTaken(m.HandleDamage)
	deps.Health.OnDeath(m.HandleDeath)
	deps.Combat.OnAttackComplete(m.HandleAttackComplete)

	m.state = StateIdle
	m.enter(StateIdle)
	return m, nil
}

// ID returns the identifier supplied at construction.
func (m *Machine) ID() string { return m.id }

// Template returns a copy of the machine's configuration.
func (m *Machine) Template() Template { return m.tmpl }

// State returns the current state.
func (m *Machine) State() State { return m.state }

// StateTimer returns the seconds remaining in a timed state (Idle, Alert, Cooldown).
func (m *Machine) StateTimer() float64 { return m.stateTimer }

// StunTimer returns the seconds of stun remaining.
func (m *Machine) StunTimer() float64 { return m.stunTimer }

// Target returns the held target, or nil.
func (m *Machine) Target() Target { return m.target }

// Dead reports whether the enemy has died.
func (m *Machine) Dead() bool { return m.dead }

// ReadyForRemoval reports whether the enemy has been dead for its despawn delay.
func (m *Machine) ReadyForRemoval() bool {
	return m.dead && m.deadElapsed >= m.tmpl.despawnDelay()
}

// OnStateChanged registers fn to be called after every transition.
//
// Precondition: fn must not be nil.
func (m *Machine) OnStateChanged(fn func(from, to State)) {
	m.observers = append(m.observers, fn)
}

// SetState transitions to next.
//
// A same-state call is a no-op except for StateAttack, which re-runs the exit
// and entry effects so consecutive attacks need no intermediate state.
// Postcondition: no effect once the enemy is dead.
func (m *Machine) SetState(next State) {
	if m.dead {
		return
	}
	if next == m.state && next != StateAttack {
		return
	}
	m.transition(next)
}

// OnTargetDetected is the sensor notification that a target came into view.
//
// Postcondition: Returns true and enters StateAlert holding t iff the enemy is
// alive, in Idle or Patrol, and t is valid.
func (m *Machine) OnTargetDetected(t Target) bool {
	if m.dead || t == nil || !t.Valid() {
		return false
	}
	if m.state != StateIdle && m.state != StatePatrol {
		return false
	}
	m.target = t
	m.SetState(StateAlert)
	return true
}

// HandleDamage is the damage-taken notification sink. Any positive damage
// stuns the enemy; damage while already stunned restarts the stun timer.
func (m *Machine) HandleDamage(amount int) {
	if m.dead || amount <= 0 {
		return
	}
	if m.state == StateStunned {
		m.stunTimer = m.tmpl.StunDuration
		return
	}
	m.SetState(StateStunned)
}

// HandleDeath is the health-depleted notification sink.
func (m *Machine) HandleDeath() {
	if m.dead {
		return
	}
	m.transition(StateDead)
}

// HandleAttackComplete is the combat collaborator's completion notification.
// It is ignored outside StateAttack.
func (m *Machine) HandleAttackComplete() {
	if m.dead || m.state != StateAttack {
		return
	}
	m.SetState(StateCooldown)
}

// Tick advances the machine by dt seconds.
//
// The stun check runs first and blocks every other per-state update.
// Precondition: dt >= 0; negative values are treated as 0.
func (m *Machine) Tick(dt float64) {
	if dt < 0 {
		dt = 0
	}
	if m.dead {
		m.deadElapsed += dt
		return
	}
	if m.state == StateStunned {
		m.stunTimer -= dt
		if m.stunTimer <= 0 {
			m.stunTimer = 0
			if m.hasTarget() {
				m.SetState(StateChase)
			} else {
				m.SetState(m.restState())
			}
		}
		return
	}

	switch m.state {
	case StateIdle:
		m.stateTimer -= dt
		if m.stateTimer <= 0 {
			if m.tmpl.CanMove {
				m.SetState(StatePatrol)
			} else {
				m.stateTimer = dice.Range(m.rng, IdleMin, IdleMax)
			}
		}
	case StatePatrol:
		if m.mover != nil {
			m.mover.Patrol()
		}
	case StateAlert:
		m.stateTimer -= dt
		if m.stateTimer <= 0 {
			if m.hasTarget() {
				m.SetState(StateChase)
			} else {
				m.SetState(m.restState())
			}
		}
	case StateChase:
		m.tickChase()
	case StateAttack:
		// waits for HandleAttackComplete
	case StateCooldown:
		m.stateTimer -= dt
		if m.stateTimer <= 0 {
			m.stateTimer = 0
			switch {
			case !m.hasTarget():
				m.target = nil
				m.SetState(m.restState())
			case m.distanceToTarget() <= m.tmpl.AttackRange:
				m.SetState(StateAttack)
			default:
				m.SetState(StateChase)
			}
		}
	}
}

func (m *Machine) tickChase() {
	if !m.hasTarget() {
		m.target = nil
		m.SetState(m.restState())
		return
	}
	d := m.distanceToTarget()
	if d > m.tmpl.LoseAggroRange {
		m.target = nil
		m.SetState(m.restState())
		return
	}
	if d <= m.tmpl.AttackRange {
		m.SetState(StateAttack)
		return
	}
	if m.mover != nil {
		m.mover.ChaseTarget(m.target)
	}
}

func (m *Machine) transition(next State) {
	prev := m.state
	m.exit(prev, next)
	m.state = next
	m.stateTimer = 0
	m.enter(next)

	m.logger.Debug("enemy state transition",
		zap.String("enemy", m.id),
		zap.String("template", m.tmpl.ID),
		zap.Stringer("from", prev),
		zap.Stringer("to", next),
	)
	for _, fn := range m.observers {
		fn(prev, next)
	}
}

func (m *Machine) exit(prev, next State) {
	if prev == StateAttack || next == StateStunned || next == StateDead {
		m.combat.CancelAttack()
	}
	if prev == StateStunned {
		m.stunTimer = 0
	}
}

func (m *Machine) enter(s State) {
	if m.mover != nil {
		m.mover.Stop()
	}
	if m.presenter != nil {
		if trig := m.triggers[s]; trig != "" {
			m.presenter.PlayTrigger(trig)
		}
		if clip := m.clips[s]; clip != "" {
			m.presenter.PlayClip(clip)
		}
	}

	switch s {
	case StateIdle:
		m.stateTimer = dice.Range(m.rng, IdleMin, IdleMax)
	case StatePatrol:
		if m.mover != nil {
			m.mover.StartPatrol()
		}
	case StateAlert:
		m.stateTimer = AlertDuration
	case StateAttack:
		m.combat.StartAttack(m.target)
	case StateCooldown:
		m.stateTimer = m.tmpl.AttackCooldown * m.cooldownMultiplier()
	case StateStunned:
		m.stunTimer = m.tmpl.StunDuration
	case StateDead:
		m.dead = true
		m.stunTimer = 0
		m.target = nil
	}
}

// restState is where an enemy without a target settles.
func (m *Machine) restState() State {
	if m.tmpl.CanMove {
		return StatePatrol
	}
	return StateIdle
}

func (m *Machine) hasTarget() bool {
	return m.target != nil && m.target.Valid()
}

func (m *Machine) distanceToTarget() float64 {
	return m.locator.Position().Dist(m.target.Position())
}

func (m *Machine) cooldownMultiplier() float64 {
	if m.cooldown == nil {
		return 1.0
	}
	if mult := m.cooldown.CooldownMultiplier(); mult > 0 {
		return mult
	}
	return 1.0
}
