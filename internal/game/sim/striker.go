package sim

import (
	"math"

	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
)

// Damageable receives hits from a Striker.
type Damageable interface {
	Damage(amount int) bool
}

// Striker is a wind-up melee attack. It implements enemy.Combat.
//
// An attack lands when the wind-up elapses, if the target is still valid,
// damageable and within reach; completion is reported either way.
type Striker struct {
	locator enemy.Locator
	windup  float64
	reach   float64
	damage  int
	scale   func() float64

	active bool
	timer  float64
	target enemy.Target
	landed int
	onDone []func()
}

// NewStriker builds a striker for an attacker at locator.
//
// Precondition: windup >= 0; reach > 0; damage >= 0.
func NewStriker(locator enemy.Locator, windup, reach float64, damage int) *Striker {
	return &Striker{locator: locator, windup: windup, reach: reach, damage: damage}
}

// SetDamageScale installs a multiplier queried each time an attack lands.
func (s *Striker) SetDamageScale(fn func() float64) { s.scale = fn }

// Active reports whether an attack is winding up.
func (s *Striker) Active() bool { return s.active }

// Landed returns the number of hits that connected.
func (s *Striker) Landed() int { return s.landed }

// StartAttack begins a wind-up against t, replacing any attack in progress.
func (s *Striker) StartAttack(t enemy.Target) {
	s.active = true
	s.timer = s.windup
	s.target = t
}

// CancelAttack abandons the attack in progress without completing it.
func (s *Striker) CancelAttack() {
	s.active = false
	s.target = nil
}

// OnAttackComplete registers fn to be called after every finished attack.
func (s *Striker) OnAttackComplete(fn func()) { s.onDone = append(s.onDone, fn) }

// Damage returns the damage one hit deals now: base × scale, rounded.
func (s *Striker) Damage() int {
	if s.scale == nil {
		return s.damage
	}
	return int(math.Round(float64(s.damage) * s.scale()))
}

// Tick advances the wind-up by dt seconds.
func (s *Striker) Tick(dt float64) {
	if !s.active {
		return
	}
	s.timer -= dt
	if s.timer > 0 {
		return
	}
	target := s.target
	s.active = false
	s.target = nil
	if target != nil && target.Valid() && s.locator.Position().Dist(target.Position()) <= s.reach {
		if victim, ok := target.(Damageable); ok && victim.Damage(s.Damage()) {
			s.landed++
		}
	}
	for _, fn := range s.onDone {
		fn()
	}
}
