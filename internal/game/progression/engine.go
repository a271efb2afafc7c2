package progression

import (
	"math/big"

	"go.uber.org/zap"
)

// HealthSink receives re-derived maximum health on level-up.
type HealthSink interface {
	SetMaxHealth(value int, refill bool)
}

// ManaSink receives re-derived maximum mana on level-up.
type ManaSink interface {
	SetMaxMana(value int, refill bool)
}

// Deps are the optional collaborators of an Engine.
type Deps struct {
	// ID labels the character in logs.
	ID     string
	Health HealthSink
	Mana   ManaSink
	// Curve defaults to a fresh NewCurve.
	Curve  *Curve
	Logger *zap.Logger
}

// Engine is one character's progression state.
//
// Invariant: Curve.XPForLevel(level) <= xp < Curve.XPForLevel(level+1).
// Invariant: level and xp never decrease outside Restore.
// Invariant: points >= 0 and every stat is non-negative.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	id     string
	cfg    Config
	class  ClassProfile
	curve  *Curve
	health HealthSink
	mana   ManaSink
	logger *zap.Logger

	level     int
	xp        *big.Int
	base      Stats
	allocated Stats
	points    int
	maxHealth int
	maxMana   int

	observers []func(level int)
}

// NewEngine creates a level-1 character of the given class and pushes its
// starting maximum health and mana to the sinks.
//
// Precondition: cfg and class must pass Validate.
// Postcondition: Level() == 1, XP() == 0, BaseStats() == class.Base.
func NewEngine(cfg Config, class ClassProfile, deps Deps) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		id:     deps.ID,
		cfg:    cfg,
		class:  class,
		curve:  deps.Curve,
		health: deps.Health,
		mana:   deps.Mana,
		logger: deps.Logger,
		level:  1,
		xp:     new(big.Int),
		base:   class.Base,
	}
	if e.curve == nil {
		e.curve = NewCurve()
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.applyResources()
	return e, nil
}

// Level returns the current level.
func (e *Engine) Level() int { return e.level }

// XP returns a copy of the accumulated experience.
func (e *Engine) XP() *big.Int { return new(big.Int).Set(e.xp) }

// XPToNextLevel returns the experience still needed for the next level.
func (e *Engine) XPToNextLevel() *big.Int {
	return new(big.Int).Sub(e.curve.at(e.level+1), e.xp)
}

// Curve returns the engine's experience table.
func (e *Engine) Curve() *Curve { return e.curve }

// Class returns the character's class profile.
func (e *Engine) Class() ClassProfile { return e.class }

// BaseStats returns the auto-growth stats.
func (e *Engine) BaseStats() Stats { return e.base }

// AllocatedStats returns the manually allocated stats.
func (e *Engine) AllocatedStats() Stats { return e.allocated }

// TotalStats returns base plus allocated stats.
func (e *Engine) TotalStats() Stats { return e.base.Add(e.allocated) }

// AvailablePoints returns the unspent allocation points.
func (e *Engine) AvailablePoints() int { return e.points }

// MaxHealth returns base health + (level-1)·health per level.
func (e *Engine) MaxHealth() int { return e.maxHealth }

// MaxMana returns base mana + (level-1)·mana per level.
func (e *Engine) MaxMana() int { return e.maxMana }

// Derived returns the multipliers computed from TotalStats.
func (e *Engine) Derived() Derived { return Derive(e.TotalStats()) }

// OnLevelUp registers fn to be called once for every level gained.
func (e *Engine) OnLevelUp(fn func(level int)) {
	e.observers = append(e.observers, fn)
}

// AddXP grants amount experience and resolves every resulting level-up
// before returning.
//
// Postcondition: Returns false with no mutation when amount <= 0. Otherwise
// XP() increased by exactly amount and the level invariant holds.
func (e *Engine) AddXP(amount int64) bool {
	if amount <= 0 {
		e.logger.Debug("rejected xp grant", zap.String("character", e.id), zap.Int64("amount", amount))
		return false
	}
	return e.AddXPBig(big.NewInt(amount))
}

// AddXPBig is AddXP for grants beyond the int64 range.
func (e *Engine) AddXPBig(amount *big.Int) bool {
	if amount == nil || amount.Sign() <= 0 {
		return false
	}
	e.xp.Add(e.xp, amount)
	for e.xp.Cmp(e.curve.at(e.level+1)) >= 0 {
		e.level++
		e.base = e.base.Add(e.class.Growth)
		e.points += e.cfg.PointsPerLevel
		e.applyResources()
		e.logger.Info("level up",
			zap.String("character", e.id),
			zap.String("class", e.class.ID),
			zap.Int("level", e.level),
			zap.Int("max_health", e.maxHealth),
		)
		for _, fn := range e.observers {
			fn(e.level)
		}
	}
	return true
}

// AllocateStat spends one point on the named stat.
//
// Postcondition: Returns false with no mutation when no points remain or name
// is not a recognised stat.
func (e *Engine) AllocateStat(name string) bool {
	stat, ok := ParseStat(name)
	if !ok || e.points <= 0 {
		e.logger.Debug("rejected stat allocation",
			zap.String("character", e.id),
			zap.String("stat", name),
			zap.Int("points", e.points),
		)
		return false
	}
	e.points--
	e.allocated.inc(stat)
	return true
}

// ResetAllocations refunds every allocated point. Base stats are untouched.
//
// Postcondition: AllocatedStats() is zero and AvailablePoints() grew by the
// previous allocated total.
func (e *Engine) ResetAllocations() {
	e.points += e.allocated.Sum()
	e.allocated = Stats{}
}

// applyResources re-derives max health and mana from the level and refills both.
func (e *Engine) applyResources() {
	e.maxHealth = e.cfg.MaxHealthAt(e.level)
	e.maxMana = e.cfg.MaxManaAt(e.level)
	if e.health != nil {
		e.health.SetMaxHealth(e.maxHealth, true)
	}
	if e.mana != nil {
		e.mana.SetMaxMana(e.maxMana, true)
	}
}
