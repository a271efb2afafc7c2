// Package sim is the host loop the behavior core runs inside: it owns
// enemies and the hero, wires their health, movement and combat
// collaborators, and advances everything on a fixed or real-time tick.
package sim

import (
	"math"

	"github.com/cory-johannsen/arpgcore/internal/game/dice"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
)

// Body is a kinematic point mover. It implements enemy.Mover and enemy.Locator.
//
// Commands only set a destination; Step integrates movement.
type Body struct {
	pos    enemy.Vec2
	home   enemy.Vec2
	speed  float64
	radius float64
	rng    dice.Source
	scale  func() float64

	moving bool
	dest   enemy.Vec2
}

// NewBody places a body at home.
//
// Precondition: speed >= 0; radius >= 0; rng must be non-nil when radius > 0.
func NewBody(home enemy.Vec2, speed, patrolRadius float64, rng dice.Source) *Body {
	return &Body{pos: home, home: home, speed: speed, radius: patrolRadius, rng: rng}
}

// SetSpeedScale installs a multiplier queried on every Step.
func (b *Body) SetSpeedScale(fn func() float64) { b.scale = fn }

// Position returns the current position.
func (b *Body) Position() enemy.Vec2 { return b.pos }

// Home returns the spawn point patrols wander around.
func (b *Body) Home() enemy.Vec2 { return b.home }

// Moving reports whether the body has a destination.
func (b *Body) Moving() bool { return b.moving }

// Destination returns the current destination; meaningful only while Moving.
func (b *Body) Destination() enemy.Vec2 { return b.dest }

// Place teleports the body to p, which also becomes its home.
func (b *Body) Place(p enemy.Vec2) {
	b.pos = p
	b.home = p
	b.moving = false
}

// Stop clears the destination.
func (b *Body) Stop() { b.moving = false }

// StartPatrol picks a fresh waypoint around home.
func (b *Body) StartPatrol() { b.pickWaypoint() }

// Patrol picks a new waypoint once the previous one was reached.
func (b *Body) Patrol() {
	if !b.moving {
		b.pickWaypoint()
	}
}

// ChaseTarget heads for the target's current position.
func (b *Body) ChaseTarget(t enemy.Target) {
	if t == nil || !t.Valid() {
		return
	}
	b.dest = t.Position()
	b.moving = true
}

// MoveTo heads for an explicit point.
func (b *Body) MoveTo(p enemy.Vec2) {
	b.dest = p
	b.moving = true
}

// Step moves toward the destination by speed × scale × dt.
//
// Postcondition: the body never overshoots; on arrival Moving() is false.
func (b *Body) Step(dt float64) {
	if !b.moving || dt <= 0 {
		return
	}
	step := b.speed * dt
	if b.scale != nil {
		step *= b.scale()
	}
	dx, dy := b.dest.X-b.pos.X, b.dest.Y-b.pos.Y
	d := math.Hypot(dx, dy)
	if d <= step {
		b.pos = b.dest
		b.moving = false
		return
	}
	b.pos.X += dx / d * step
	b.pos.Y += dy / d * step
}

func (b *Body) pickWaypoint() {
	if b.radius <= 0 || b.rng == nil {
		b.dest = b.home
	} else {
		angle := b.rng.Float64() * 2 * math.Pi
		r := b.rng.Float64() * b.radius
		b.dest = enemy.Vec2{X: b.home.X + math.Cos(angle)*r, Y: b.home.Y + math.Sin(angle)*r}
	}
	b.moving = true
}
