// Package health provides the hit point and mana pools that enemies and
// heroes hand to the behavior core as their health collaborator.
package health

// Pool tracks current and maximum hit points with an invulnerability window.
//
// Subscribers are notified synchronously in the order health-changed,
// damage-taken, death.
//
// Invariant: 0 <= current <= max.
// Invariant: once dead is true it never becomes false.
//
// A Pool is not safe for concurrent use; the caller must serialise access.
type Pool struct {
	current int
	max     int
	invuln  float64
	dead    bool

	onChanged []func(current, max int)
	onDamage  []func(amount int)
	onDeath   []func()
}

// NewPool creates a full pool.
//
// Precondition: capacity >= 1; smaller values are raised to 1.
// Postcondition: Current() == Max().
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{current: capacity, max: capacity}
}

// Current returns the current hit points.
func (p *Pool) Current() int { return p.current }

// Max returns the maximum hit points.
func (p *Pool) Max() int { return p.max }

// Ratio returns current/max in [0,1].
func (p *Pool) Ratio() float64 { return float64(p.current) / float64(p.max) }

// Dead reports whether the pool has been depleted.
func (p *Pool) Dead() bool { return p.dead }

// Invulnerable reports whether an invulnerability window is open.
func (p *Pool) Invulnerable() bool { return p.invuln > 0 }

// OnHealthChanged registers fn to receive (current, max) after every change.
func (p *Pool) OnHealthChanged(fn func(current, max int)) { p.onChanged = append(p.onChanged, fn) }

// OnDamageTaken registers fn to receive the amount of every applied hit.
func (p *Pool) OnDamageTaken(fn func(amount int)) { p.onDamage = append(p.onDamage, fn) }

// OnDeath registers fn to be called once when the pool is depleted.
func (p *Pool) OnDeath(fn func()) { p.onDeath = append(p.onDeath, fn) }

// Damage removes amount hit points.
//
// Postcondition: Returns false with no mutation when amount <= 0, the pool is
// dead, or an invulnerability window is open. Otherwise current is reduced
// (floored at 0) and subscribers are notified.
func (p *Pool) Damage(amount int) bool {
	if amount <= 0 || p.dead || p.invuln > 0 {
		return false
	}
	p.current -= amount
	if p.current < 0 {
		p.current = 0
	}
	p.notifyChanged()
	for _, fn := range p.onDamage {
		fn(amount)
	}
	if p.current == 0 {
		p.dead = true
		for _, fn := range p.onDeath {
			fn()
		}
	}
	return true
}

// Heal restores up to amount hit points.
//
// Postcondition: Returns false with no mutation when amount <= 0 or the pool
// is dead.
func (p *Pool) Heal(amount int) bool {
	if amount <= 0 || p.dead {
		return false
	}
	p.current += amount
	if p.current > p.max {
		p.current = p.max
	}
	p.notifyChanged()
	return true
}

// SetMaxHealth changes the maximum, refilling to full when refill is true
// and otherwise clamping current to the new maximum.
//
// Precondition: value >= 1; smaller values are ignored.
func (p *Pool) SetMaxHealth(value int, refill bool) {
	if value < 1 || p.dead {
		return
	}
	p.max = value
	if refill || p.current > p.max {
		p.current = p.max
	}
	p.notifyChanged()
}

// GrantInvulnerability opens an invulnerability window of at least seconds.
// A longer window already open is kept.
func (p *Pool) GrantInvulnerability(seconds float64) {
	if seconds > p.invuln {
		p.invuln = seconds
	}
}

// Tick advances the invulnerability window by dt seconds.
func (p *Pool) Tick(dt float64) {
	if dt <= 0 || p.invuln <= 0 {
		return
	}
	p.invuln -= dt
	if p.invuln < 0 {
		p.invuln = 0
	}
}

func (p *Pool) notifyChanged() {
	for _, fn := range p.onChanged {
		fn(p.current, p.max)
	}
}
