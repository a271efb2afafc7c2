package sim

import (
	"math"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arpgcore/internal/content"
	"github.com/cory-johannsen/arpgcore/internal/game/boss"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/health"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
)

// Enemy is a live enemy entity and its wired collaborators.
type Enemy struct {
	ID      uuid.UUID
	Def     *content.EnemyDef
	Body    *Body
	Health  *health.Pool
	Striker *Striker
	Machine *enemy.Machine
	// Boss is nil for ordinary enemies.
	Boss *boss.Controller
}

// Position implements enemy.Target so the hero can pursue enemies.
func (e *Enemy) Position() enemy.Vec2 { return e.Body.Position() }

// Valid reports whether the enemy is still alive.
func (e *Enemy) Valid() bool { return !e.Machine.Dead() }

// Damage implements Damageable.
func (e *Enemy) Damage(amount int) bool { return e.Health.Damage(amount) }

// tick advances the enemy's collaborators and state machine in delivery
// order: health timers, combat timers, then behavior.
func (e *Enemy) tick(dt float64) {
	e.Health.Tick(dt)
	e.Striker.Tick(dt)
}

// Hero defaults.
const (
	HeroSpeed          = 3.0
	HeroReach          = 1.5
	HeroBaseDamage     = 6
	HeroAttackInterval = 0.8
	HeroCritMultiplier = 2.0
)

// Hero is the player character. It implements enemy.Target and Damageable.
//
// The hero fights on its own: it walks to the nearest living enemy and
// strikes it every HeroAttackInterval, scaled by its derived stats.
type Hero struct {
	ID          uuid.UUID
	Name        string
	Body        *Body
	Health      *health.Pool
	Mana        *health.Mana
	Progression *progression.Engine
	// Abilities are unlocked ability IDs carried through saves.
	Abilities []string

	attackTimer float64
	kills       int
}

// Position implements enemy.Target.
func (h *Hero) Position() enemy.Vec2 { return h.Body.Position() }

// Valid reports whether the hero is alive.
func (h *Hero) Valid() bool { return !h.Health.Dead() }

// Damage implements Damageable.
func (h *Hero) Damage(amount int) bool { return h.Health.Damage(amount) }

// Kills returns the number of enemies the hero has slain.
func (h *Hero) Kills() int { return h.kills }

// Unlock adds ability to the hero's unlocked set.
//
// Postcondition: Returns false when ability is empty or already unlocked.
func (h *Hero) Unlock(ability string) bool {
	if ability == "" {
		return false
	}
	for _, a := range h.Abilities {
		if a == ability {
			return false
		}
	}
	h.Abilities = append(h.Abilities, ability)
	return true
}

// act moves toward target or strikes it when in reach.
func (h *Hero) act(dt float64, target *Enemy, roll func() float64) {
	h.attackTimer -= dt
	if target == nil || !h.Valid() {
		h.Body.Stop()
		return
	}
	derived := h.Progression.Derived()
	if h.Position().Dist(target.Position()) > HeroReach {
		h.Body.ChaseTarget(target)
		return
	}
	h.Body.Stop()
	if h.attackTimer > 0 {
		return
	}
	dmg := float64(HeroBaseDamage) * derived.PhysicalDamageMultiplier
	if roll() < derived.CritChance {
		dmg *= HeroCritMultiplier
	}
	target.Damage(int(math.Round(dmg)))
	h.attackTimer = HeroAttackInterval / derived.SpeedMultiplier
}
