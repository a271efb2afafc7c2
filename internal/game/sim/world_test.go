package sim_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arpgcore/internal/content"
	"github.com/cory-johannsen/arpgcore/internal/game/boss"
	"github.com/cory-johannsen/arpgcore/internal/game/dice"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
	"github.com/cory-johannsen/arpgcore/internal/game/sim"
)

const step = 1.0 / 60

type recordedHooks struct {
	states []string
	phases []string
	levels []int
}

func (r *recordedHooks) StateEntered(scope, id, from, to string) {
	r.states = append(r.states, scope+":"+from+">"+to)
}

func (r *recordedHooks) PhaseEntered(scope, id, from, to string) {
	r.phases = append(r.phases, scope+":"+from+">"+to)
}

func (r *recordedHooks) LeveledUp(scope, id string, level int) {
	r.levels = append(r.levels, level)
}

func slimeDef() *content.EnemyDef {
	return &content.EnemyDef{Template: enemy.Template{
		ID:             "slime",
		Name:           "Green Slime",
		CanMove:        true,
		MoveSpeed:      1.5,
		PatrolRadius:   2,
		DetectionRange: 5,
		LoseAggroRange: 9,
		AttackRange:    1.2,
		AttackCooldown: 1.5,
		AttackDuration: 0.4,
		StunDuration:   0.4,
		ContactDamage:  4,
		MaxHealth:      20,
		DespawnDelay:   1.5,
		XPReward:       90,
	}}
}

func golemDef() *content.EnemyDef {
	return &content.EnemyDef{
		Template: enemy.Template{
			ID:             "stone_golem",
			Name:           "Stone Golem",
			CanMove:        true,
			MoveSpeed:      1,
			DetectionRange: 9,
			LoseAggroRange: 18,
			AttackRange:    2.5,
			AttackCooldown: 3,
			AttackDuration: 1,
			StunDuration:   0.3,
			ContactDamage:  20,
			MaxHealth:      400,
			XPReward:       1500,
		},
		Boss: &boss.Config{
			Phase2HealthPercent: 0.5,
			EnrageHealthPercent: 0.2,
			Phase2:              boss.Multipliers{Speed: 1.25, Damage: 1.5, Cooldown: 0.8},
			Enraged:             boss.Multipliers{Speed: 1.6, Damage: 2, Cooldown: 0.5},
		},
	}
}

func warriorClass() progression.ClassProfile {
	return progression.ClassProfile{
		ID:     "warrior",
		Name:   "Warrior",
		Base:   progression.Stats{Strength: 6, Intelligence: 1, Agility: 3},
		Growth: progression.Stats{Strength: 2, Agility: 1},
	}
}

func newWorld(hooks sim.Hooks) *sim.World {
	return sim.NewWorld(sim.Deps{Random: dice.NewSeededSource(42), Hooks: hooks})
}

func TestWorld_SpawnGetRemove(t *testing.T) {
	ids := []uuid.UUID{uuid.MustParse("00000000-0000-0000-0000-000000000001"), uuid.MustParse("00000000-0000-0000-0000-000000000002")}
	next := 0
	w := sim.NewWorld(sim.Deps{Random: dice.NewSeededSource(1), NewID: func() uuid.UUID {
		id := ids[next]
		next++
		return id
	}})

	a, err := w.SpawnEnemy(slimeDef(), enemy.Vec2{X: 1})
	require.NoError(t, err)
	b, err := w.SpawnEnemy(slimeDef(), enemy.Vec2{X: 2})
	require.NoError(t, err)
	assert.Equal(t, ids[0], a.ID)
	assert.Equal(t, enemy.StateIdle, a.Machine.State())

	got, ok := w.Get(b.ID)
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []*sim.Enemy{a, b}, w.Enemies())

	require.NoError(t, w.Remove(a.ID))
	assert.Equal(t, []*sim.Enemy{b}, w.Enemies())
	err = w.Remove(a.ID)
	assert.True(t, errors.Is(err, sim.ErrEntityNotFound))
	_, ok = w.Get(a.ID)
	assert.False(t, ok)
}

func TestWorld_SpawnEnemyRejectsNil(t *testing.T) {
	_, err := newWorld(nil).SpawnEnemy(nil, enemy.Vec2{})
	assert.Error(t, err)
}

func TestWorld_DetectionAlertsEnemy(t *testing.T) {
	w := newWorld(nil)
	def := slimeDef()
	def.CanMove = false
	def.MoveSpeed = 0
	e, err := w.SpawnEnemy(def, enemy.Vec2{X: 8})
	require.NoError(t, err)

	// The hero spawns outside detection range and walks in.
	_, err = w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)
	w.Tick(step)
	assert.Equal(t, enemy.StateIdle, e.Machine.State())

	for i := 0; i < 120 && e.Machine.State() == enemy.StateIdle; i++ {
		w.Tick(step)
	}
	assert.Equal(t, enemy.StateAlert, e.Machine.State())
	assert.Same(t, w.Hero(), e.Machine.Target())
}

func TestWorld_HeroKillsEnemyAndLevels(t *testing.T) {
	hooks := &recordedHooks{}
	w := newWorld(hooks)
	_, err := w.SpawnEnemy(slimeDef(), enemy.Vec2{X: 3})
	require.NoError(t, err)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)

	for i := 0; i < 60*60 && (hero.Kills() == 0 || len(w.Enemies()) > 0); i++ {
		w.Tick(step)
	}
	require.Equal(t, 1, hero.Kills())
	assert.Empty(t, w.Enemies(), "the corpse is removed after its despawn delay")
	assert.True(t, hero.Valid())
	assert.Equal(t, int64(90), hero.Progression.XP().Int64())
	assert.Equal(t, 2, hero.Progression.Level())
	assert.Equal(t, []int{2}, hooks.levels)
	assert.Contains(t, hooks.states, "slime:idle>alert")
	assert.Contains(t, hooks.states, "slime:stunned>dead")
}

func TestWorld_BossPhasesScaleCollaborators(t *testing.T) {
	hooks := &recordedHooks{}
	w := newWorld(hooks)
	e, err := w.SpawnEnemy(golemDef(), enemy.Vec2{})
	require.NoError(t, err)
	require.NotNil(t, e.Boss)
	assert.Equal(t, 20, e.Striker.Damage())

	require.True(t, e.Health.Damage(200))
	assert.Equal(t, boss.Phase2, e.Boss.Phase())
	assert.Equal(t, 30, e.Striker.Damage())
	assert.False(t, e.Health.Damage(1), "phase change grants invulnerability")

	w.Tick(boss.DefaultInvulnerability)
	require.True(t, e.Health.Damage(150))
	assert.Equal(t, boss.Enraged, e.Boss.Phase())
	assert.Equal(t, 40, e.Striker.Damage())
	assert.Equal(t, []string{"stone_golem:phase1>phase2", "stone_golem:phase2>enraged"}, hooks.phases)
}

func TestWorld_EnemyAttacksHero(t *testing.T) {
	w := newWorld(nil)
	def := slimeDef()
	def.MaxHealth = 1000
	def.ContactDamage = 7
	// Quicker than the hero's swing so its stuns cannot cancel every attack.
	def.AttackDuration = 0.1
	def.StunDuration = 0.1
	_, err := w.SpawnEnemy(def, enemy.Vec2{X: 1})
	require.NoError(t, err)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)

	for i := 0; i < 10*60 && hero.Health.Current() == hero.Health.Max(); i++ {
		w.Tick(step)
	}
	assert.Less(t, hero.Health.Current(), hero.Health.Max())
}

func TestWorld_TickAccounting(t *testing.T) {
	w := newWorld(nil)
	w.Tick(0.5)
	w.Tick(-1)
	assert.Equal(t, 2, w.Ticks())
	assert.InDelta(t, 0.5, w.Elapsed(), 1e-9)
}

func TestHero_Unlock(t *testing.T) {
	w := newWorld(nil)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)
	assert.True(t, hero.Unlock("dash"))
	assert.False(t, hero.Unlock("dash"))
	assert.False(t, hero.Unlock(""))
	assert.Equal(t, []string{"dash"}, hero.Abilities)
}

func TestWorld_SpawnHeroRejectsBadClass(t *testing.T) {
	_, err := newWorld(nil).SpawnHero("ayla", progression.ClassProfile{}, progression.DefaultConfig(), enemy.Vec2{})
	assert.Error(t, err)
}
