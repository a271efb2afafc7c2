package enemy_test

import (
	"github.com/cory-johannsen/arpgcore/internal/game/dice"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
)

type fakeMover struct {
	stops        int
	startPatrols int
	patrols      int
	chased       []enemy.Target
}

func (f *fakeMover) Stop()                      { f.stops++ }
func (f *fakeMover) StartPatrol()               { f.startPatrols++ }
func (f *fakeMover) Patrol()                    { f.patrols++ }
func (f *fakeMover) ChaseTarget(t enemy.Target) { f.chased = append(f.chased, t) }

type fakeLocator struct{ pos enemy.Vec2 }

func (f *fakeLocator) Position() enemy.Vec2 { return f.pos }

type fakeCombat struct {
	started   []enemy.Target
	cancels   int
	completed []func()
}

func (f *fakeCombat) StartAttack(t enemy.Target) { f.started = append(f.started, t) }
func (f *fakeCombat) CancelAttack()              { f.cancels++ }
func (f *fakeCombat) OnAttackComplete(fn func()) { f.completed = append(f.completed, fn) }
func (f *fakeCombat) complete() {
	for _, fn := range f.completed {
		fn()
	}
}

type fakeHealth struct {
	damage []func(int)
	death  []func()
}

func (f *fakeHealth) OnDamageTaken(fn func(int)) { f.damage = append(f.damage, fn) }
func (f *fakeHealth) OnDeath(fn func())          { f.death = append(f.death, fn) }
func (f *fakeHealth) hit(amount int) {
	for _, fn := range f.damage {
		fn(amount)
	}
}
func (f *fakeHealth) kill() {
	for _, fn := range f.death {
		fn()
	}
}

type fakeTarget struct {
	pos   enemy.Vec2
	valid bool
}

func (f *fakeTarget) Position() enemy.Vec2 { return f.pos }
func (f *fakeTarget) Valid() bool          { return f.valid }

type fakePresenter struct {
	triggers, clips []string
}

func (f *fakePresenter) PlayTrigger(name string) { f.triggers = append(f.triggers, name) }
func (f *fakePresenter) PlayClip(name string)    { f.clips = append(f.clips, name) }

type fixedScale float64

func (f fixedScale) CooldownMultiplier() float64 { return float64(f) }

func grunt() enemy.Template {
	return enemy.Template{
		ID:             "grunt",
		Name:           "Grunt",
		CanMove:        true,
		MoveSpeed:      2,
		PatrolRadius:   3,
		DetectionRange: 6,
		LoseAggroRange: 10,
		AttackRange:    1.5,
		AttackCooldown: 1.0,
		AttackDuration: 0.4,
		StunDuration:   0.6,
		ContactDamage:  5,
		MaxHealth:      30,
		DespawnDelay:   2,
	}
}

type rig struct {
	mover     *fakeMover
	locator   *fakeLocator
	combat    *fakeCombat
	health    *fakeHealth
	presenter *fakePresenter
	target    *fakeTarget
}

func newRig() *rig {
	return &rig{
		mover:     &fakeMover{},
		locator:   &fakeLocator{},
		combat:    &fakeCombat{},
		health:    &fakeHealth{},
		presenter: &fakePresenter{},
		target:    &fakeTarget{pos: enemy.Vec2{X: 5}, valid: true},
	}
}

func (r *rig) deps() enemy.Deps {
	return enemy.Deps{
		ID:        "e-1",
		Mover:     r.mover,
		Locator:   r.locator,
		Combat:    r.combat,
		Health:    r.health,
		Presenter: r.presenter,
		// Idle timer always lands on IdleMin + 0.5*(IdleMax-IdleMin) = 2s.
		Random: dice.Fixed(0.5),
	}
}
