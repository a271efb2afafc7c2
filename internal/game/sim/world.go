package sim

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arpgcore/internal/content"
	"github.com/cory-johannsen/arpgcore/internal/game/boss"
	"github.com/cory-johannsen/arpgcore/internal/game/dice"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/health"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
)

// ErrEntityNotFound is returned when an entity ID is not in the world.
var ErrEntityNotFound = errors.New("entity not found")

// Hooks receives script notifications. *scripting.Manager satisfies it.
type Hooks interface {
	StateEntered(scope, id, from, to string)
	PhaseEntered(scope, id, from, to string)
	LeveledUp(scope, id string, level int)
}

// Deps are the optional collaborators of a World.
type Deps struct {
	// Random defaults to a crypto source.
	Random dice.Source
	Logger *zap.Logger
	Hooks  Hooks
	// NewID defaults to uuid.New.
	NewID func() uuid.UUID
}

// World owns every entity of one simulation and advances them in a fixed
// order each tick.
//
// A World is not safe for concurrent use; Runner serializes access.
type World struct {
	rng    dice.Source
	logger *zap.Logger
	hooks  Hooks
	newID  func() uuid.UUID

	enemies map[uuid.UUID]*Enemy
	order   []uuid.UUID
	hero    *Hero
	elapsed float64
	ticks   int
}

// NewWorld creates an empty world.
func NewWorld(deps Deps) *World {
	w := &World{
		rng:     deps.Random,
		logger:  deps.Logger,
		hooks:   deps.Hooks,
		newID:   deps.NewID,
		enemies: make(map[uuid.UUID]*Enemy),
	}
	if w.rng == nil {
		w.rng = dice.NewCryptoSource()
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.newID == nil {
		w.newID = uuid.New
	}
	return w
}

// Elapsed returns the simulated seconds advanced so far.
func (w *World) Elapsed() float64 { return w.elapsed }

// Ticks returns the number of ticks advanced so far.
func (w *World) Ticks() int { return w.ticks }

// Hero returns the hero, or nil before SpawnHero.
func (w *World) Hero() *Hero { return w.hero }

// SpawnEnemy builds an enemy from def at the given point and wires its
// health, body, striker, presenter and, for bosses, phase controller.
//
// Precondition: def must be non-nil and valid.
// Postcondition: Returns the registered enemy in StateIdle, or a non-nil error.
func (w *World) SpawnEnemy(def *content.EnemyDef, at enemy.Vec2) (*Enemy, error) {
	if def == nil {
		return nil, errors.New("sim.World.SpawnEnemy: def must not be nil")
	}
	id := w.newID()
	label := fmt.Sprintf("%s-%s", def.ID, id.String()[:8])
	tmpl := def.Template

	e := &Enemy{
		ID:     id,
		Def:    def,
		Body:   NewBody(at, tmpl.MoveSpeed, tmpl.PatrolRadius, w.rng),
		Health: health.NewPool(tmpl.MaxHealth),
	}
	e.Striker = NewStriker(e.Body, tmpl.AttackDuration, tmpl.AttackRange, tmpl.ContactDamage)

	deps := enemy.Deps{
		ID:        label,
		Locator:   e.Body,
		Combat:    e.Striker,
		Presenter: NewLogPresenter(w.logger, label),
		Random:    w.rng,
		Logger:    w.logger,
	}
	if tmpl.CanMove {
		deps.Mover = e.Body
	}

	if def.IsBoss() {
		enc, err := boss.NewEncounter(tmpl, *def.Boss, e.Health, deps)
		if err != nil {
			return nil, err
		}
		e.Machine, e.Boss = enc.Machine, enc.Phases
		e.Body.SetSpeedScale(e.Boss.SpeedMultiplier)
		e.Striker.SetDamageScale(e.Boss.DamageMultiplier)
		if w.hooks != nil {
			e.Boss.OnPhaseChanged(func(from, to boss.Phase) {
				w.hooks.PhaseEntered(def.ID, label, from.String(), to.String())
			})
		}
	} else {
		deps.Health = e.Health
		m, err := enemy.NewMachine(tmpl, deps)
		if err != nil {
			return nil, err
		}
		e.Machine = m
	}

	if w.hooks != nil {
		e.Machine.OnStateChanged(func(from, to enemy.State) {
			w.hooks.StateEntered(def.ID, label, from.String(), to.String())
		})
	}
	e.Health.OnDeath(func() { w.awardKill(e) })

	w.enemies[id] = e
	w.order = append(w.order, id)
	w.logger.Info("enemy spawned",
		zap.String("enemy", label),
		zap.String("template", def.ID),
		zap.Bool("boss", def.IsBoss()),
		zap.Float64("x", at.X),
		zap.Float64("y", at.Y),
	)
	return e, nil
}

// SpawnHero creates the hero with a fresh level-1 progression engine. A
// previous hero is replaced.
//
// Postcondition: Returns the hero at full health, or a non-nil error.
func (w *World) SpawnHero(name string, class progression.ClassProfile, cfg progression.Config, at enemy.Vec2) (*Hero, error) {
	h := &Hero{
		ID:     w.newID(),
		Name:   name,
		Body:   NewBody(at, HeroSpeed, 0, nil),
		Health: health.NewPool(cfg.BaseHealth),
		Mana:   health.NewMana(cfg.BaseMana),
	}
	engine, err := progression.NewEngine(cfg, class, progression.Deps{
		ID:     name,
		Health: h.Health,
		Mana:   h.Mana,
		Logger: w.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("spawning hero %q: %w", name, err)
	}
	h.Progression = engine
	h.Body.SetSpeedScale(func() float64 { return engine.Derived().SpeedMultiplier })
	if w.hooks != nil {
		engine.OnLevelUp(func(level int) { w.hooks.LeveledUp(class.ID, name, level) })
	}
	h.Health.OnDeath(func() {
		w.logger.Info("hero slain", zap.String("hero", name), zap.Int("level", engine.Level()))
	})
	w.hero = h
	w.logger.Info("hero spawned", zap.String("hero", name), zap.String("class", class.ID))
	return h, nil
}

// Get returns the enemy with the given ID.
//
// Postcondition: Returns (e, true) if found, or (nil, false) otherwise.
func (w *World) Get(id uuid.UUID) (*Enemy, bool) {
	e, ok := w.enemies[id]
	return e, ok
}

// Remove deletes an enemy by ID.
//
// Postcondition: Returns ErrEntityNotFound (wrapped) if the enemy is not present.
func (w *World) Remove(id uuid.UUID) error {
	if _, ok := w.enemies[id]; !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}
	delete(w.enemies, id)
	w.order = slices.DeleteFunc(w.order, func(o uuid.UUID) bool { return o == id })
	return nil
}

// Enemies returns the live enemies in spawn order.
func (w *World) Enemies() []*Enemy {
	out := make([]*Enemy, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.enemies[id])
	}
	return out
}

// Tick advances the world by dt seconds.
//
// Each enemy, in spawn order, receives health timers, combat timers,
// detection, and then its state machine tick; bodies are integrated after
// behavior. The hero acts last. Enemies whose post-death delay elapsed are
// removed at the end of the tick.
func (w *World) Tick(dt float64) {
	if dt < 0 {
		dt = 0
	}
	w.elapsed += dt
	w.ticks++

	for _, id := range slices.Clone(w.order) {
		e, ok := w.enemies[id]
		if !ok {
			continue
		}
		e.tick(dt)
		w.detect(e)
		e.Machine.Tick(dt)
		e.Body.Step(dt)
	}

	if h := w.hero; h != nil {
		h.Health.Tick(dt)
		h.act(dt, w.nearestLiving(h.Position()), w.rng.Float64)
		h.Body.Step(dt)
	}

	for _, id := range slices.Clone(w.order) {
		if e := w.enemies[id]; e.Machine.ReadyForRemoval() {
			_ = w.Remove(id)
			w.logger.Debug("enemy despawned", zap.String("enemy", id.String()), zap.String("template", e.Def.ID))
		}
	}
}

// detect notifies e when the hero is within its detection range.
func (w *World) detect(e *Enemy) {
	h := w.hero
	if h == nil || !h.Valid() {
		return
	}
	if s := e.Machine.State(); s != enemy.StateIdle && s != enemy.StatePatrol {
		return
	}
	if e.Body.Position().Dist(h.Position()) <= e.Def.DetectionRange {
		e.Machine.OnTargetDetected(h)
	}
}

func (w *World) nearestLiving(from enemy.Vec2) *Enemy {
	var best *Enemy
	bestDist := 0.0
	for _, id := range w.order {
		e := w.enemies[id]
		if !e.Valid() {
			continue
		}
		if d := from.Dist(e.Position()); best == nil || d < bestDist {
			best, bestDist = e, d
		}
	}
	return best
}

func (w *World) awardKill(e *Enemy) {
	h := w.hero
	if h == nil {
		return
	}
	h.kills++
	w.logger.Info("enemy slain",
		zap.String("template", e.Def.ID),
		zap.String("hero", h.Name),
		zap.Int64("xp", e.Def.XPReward),
	)
	h.Progression.AddXP(e.Def.XPReward)
}
