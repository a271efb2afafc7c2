package enemy

import "math"

// Vec2 is a point in world space.
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Dist returns the Euclidean distance between v and o.
func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(o.X-v.X, o.Y-v.Y)
}

// Target is a weak handle to something an enemy pursues. The machine never
// owns a target; a handle whose Valid reports false is treated as absent.
type Target interface {
	Position() Vec2
	Valid() bool
}

// Mover receives movement commands. No return value is consumed.
type Mover interface {
	Stop()
	StartPatrol()
	Patrol()
	ChaseTarget(t Target)
}

// Locator reports the enemy's own position.
type Locator interface {
	Position() Vec2
}

// Combat starts and cancels attacks and reports when an attack completes.
type Combat interface {
	StartAttack(t Target)
	CancelAttack()
	// OnAttackComplete registers fn to be called each time an attack finishes.
	OnAttackComplete(fn func())
}

// HealthEvents is the subset of the health contract the machine subscribes to.
type HealthEvents interface {
	OnDamageTaken(fn func(amount int))
	OnDeath(fn func())
}

// Presenter receives fire-and-forget animation and audio requests.
type Presenter interface {
	PlayTrigger(name string)
	PlayClip(name string)
}

// CooldownScaler supplies the multiplier applied to the base attack cooldown.
// It is queried each time Cooldown is entered.
type CooldownScaler interface {
	CooldownMultiplier() float64
}
