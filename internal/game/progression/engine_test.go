package progression_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arpgcore/internal/game/health"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
)

func warrior() progression.ClassProfile {
	return progression.ClassProfile{
		ID:     "warrior",
		Name:   "Warrior",
		Base:   progression.Stats{Strength: 5, Intelligence: 1, Agility: 2},
		Growth: progression.Stats{Strength: 2, Agility: 1},
	}
}

func newEngine(t testingT, deps progression.Deps) *progression.Engine {
	t.Helper()
	e, err := progression.NewEngine(progression.DefaultConfig(), warrior(), deps)
	require.NoError(t, err)
	return e
}

type testingT interface {
	require.TestingT
	Helper()
}

func TestEngine_StartsAtLevelOne(t *testing.T) {
	hp := health.NewPool(1)
	mana := health.NewMana(0)
	e := newEngine(t, progression.Deps{Health: hp, Mana: mana})

	assert.Equal(t, 1, e.Level())
	assert.Zero(t, e.XP().Sign())
	assert.Equal(t, 100, hp.Max())
	assert.Equal(t, 100, hp.Current())
	assert.Equal(t, 50, mana.Max())
	assert.Equal(t, warrior().Base, e.BaseStats())
	assert.Equal(t, int64(83), e.XPToNextLevel().Int64())
}

func TestEngine_ThreeLevelCascade(t *testing.T) {
	hp := health.NewPool(1)
	e := newEngine(t, progression.Deps{Health: hp})
	require.True(t, hp.Damage(60))

	var levels []int
	e.OnLevelUp(func(level int) { levels = append(levels, level) })

	require.True(t, e.AddXP(e.Curve().XPForLevel(4).Int64()+10))
	assert.Equal(t, 4, e.Level())
	assert.Equal(t, []int{2, 3, 4}, levels)
	assert.Equal(t, 100+(4-1)*5, e.MaxHealth())
	assert.Equal(t, 115, hp.Max())
	assert.Equal(t, 115, hp.Current(), "level-up refills health")
	assert.Equal(t, 9, e.AvailablePoints())
	assert.Equal(t, progression.Stats{Strength: 11, Intelligence: 1, Agility: 5}, e.BaseStats())
}

func TestEngine_RejectsNonPositiveXP(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	assert.False(t, e.AddXP(0))
	assert.False(t, e.AddXP(-100))
	assert.False(t, e.AddXPBig(nil))
	assert.Zero(t, e.XP().Sign())
}

func TestEngine_HugeGrantBeyondInt64(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	target := e.Curve().XPForLevel(420)
	require.False(t, target.IsInt64())
	require.True(t, e.AddXPBig(target))
	assert.Equal(t, 420, e.Level())
	assert.Equal(t, 0, e.XP().Cmp(target))
}

func TestEngine_AllocateWithoutPoints(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	before := e.Snapshot()
	assert.False(t, e.AllocateStat("str"))
	assert.Equal(t, before, e.Snapshot())
}

func TestEngine_AllocateAndReset(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	require.True(t, e.AddXP(83))
	require.Equal(t, 3, e.AvailablePoints())

	assert.False(t, e.AllocateStat("charisma"))
	assert.True(t, e.AllocateStat("str"))
	assert.True(t, e.AllocateStat("Agility"))
	assert.True(t, e.AllocateStat(" INT "))
	assert.False(t, e.AllocateStat("str"))
	assert.Equal(t, progression.Stats{Strength: 1, Intelligence: 1, Agility: 1}, e.AllocatedStats())
	assert.Equal(t, 0, e.AvailablePoints())

	base := e.BaseStats()
	e.ResetAllocations()
	assert.Equal(t, progression.Stats{}, e.AllocatedStats())
	assert.Equal(t, 3, e.AvailablePoints())
	assert.Equal(t, base, e.BaseStats(), "base stats are never refunded")
}

func TestDerive_Clamps(t *testing.T) {
	d := progression.Derive(progression.Stats{})
	assert.Equal(t, progression.Derived{SpeedMultiplier: 1, CritChance: 0, PhysicalDamageMultiplier: 1, SpellPowerMultiplier: 1}, d)

	d = progression.Derive(progression.Stats{Strength: 10, Intelligence: 25, Agility: 20})
	assert.InDelta(t, 1.2, d.SpeedMultiplier, 1e-9)
	assert.InDelta(t, 0.1, d.CritChance, 1e-9)
	assert.InDelta(t, 1.2, d.PhysicalDamageMultiplier, 1e-9)
	assert.InDelta(t, 1.5, d.SpellPowerMultiplier, 1e-9)

	d = progression.Derive(progression.Stats{Strength: 500, Intelligence: 500, Agility: 500})
	assert.Equal(t, progression.MaxSpeedMultiplier, d.SpeedMultiplier)
	assert.Equal(t, progression.MaxCritChance, d.CritChance)
	assert.Equal(t, progression.MaxDamageMultiplier, d.PhysicalDamageMultiplier)
	assert.Equal(t, progression.MaxDamageMultiplier, d.SpellPowerMultiplier)
}

func TestEngine_DerivedUsesTotalStats(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	require.True(t, e.AddXP(83))
	require.True(t, e.AllocateStat("agi"))
	// base agi 2 + growth 1 + allocated 1
	assert.InDelta(t, 1.04, e.Derived().SpeedMultiplier, 1e-9)
}

func TestEngine_SnapshotRestore(t *testing.T) {
	src := newEngine(t, progression.Deps{ID: "src"})
	require.True(t, src.AddXP(1000))
	require.True(t, src.AllocateStat("str"))
	snap := src.Snapshot()

	hp := health.NewPool(1)
	dst := newEngine(t, progression.Deps{ID: "dst", Health: hp})
	require.NoError(t, dst.Restore(snap))
	assert.Equal(t, snap, dst.Snapshot())
	assert.Equal(t, src.Level(), dst.Level())
	assert.Equal(t, dst.MaxHealth(), hp.Max())
}

func TestEngine_RestoreNormalizesLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := newEngine(t, progression.Deps{ID: "hero", Logger: zap.New(core)})
	require.NoError(t, e.Restore(progression.Snapshot{Level: 40, XP: big.NewInt(200)}))
	assert.Equal(t, 3, e.Level())
	assert.Equal(t, 1, logs.FilterMessage("snapshot level normalized from xp").Len())
}

func TestEngine_RestoreRejectsNegatives(t *testing.T) {
	e := newEngine(t, progression.Deps{})
	require.True(t, e.AddXP(500))
	before := e.Snapshot()

	assert.Error(t, e.Restore(progression.Snapshot{XP: big.NewInt(-1)}))
	assert.Error(t, e.Restore(progression.Snapshot{AvailablePoints: -2}))
	assert.Error(t, e.Restore(progression.Snapshot{BaseStats: progression.Stats{Agility: -1}}))
	assert.Equal(t, before, e.Snapshot())
}

func TestEngine_LogsLevelUp(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := newEngine(t, progression.Deps{ID: "hero", Logger: zap.New(core)})
	require.True(t, e.AddXP(174))
	entries := logs.FilterMessage("level up").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(3), entries[1].ContextMap()["level"])
}

func TestNewEngine_RejectsBadInputs(t *testing.T) {
	cfg := progression.DefaultConfig()
	cfg.BaseHealth = 0
	_, err := progression.NewEngine(cfg, warrior(), progression.Deps{})
	assert.Error(t, err)

	class := warrior()
	class.ID = ""
	_, err = progression.NewEngine(progression.DefaultConfig(), class, progression.Deps{})
	assert.Error(t, err)

	class = warrior()
	class.Growth.Strength = -1
	_, err = progression.NewEngine(progression.DefaultConfig(), class, progression.Deps{})
	assert.Error(t, err)
}

func TestParseStat(t *testing.T) {
	for _, name := range []string{"str", "strength", "int", "intelligence", "agi", "agility"} {
		_, ok := progression.ParseStat(name)
		assert.True(t, ok, name)
	}
	s, _ := progression.ParseStat("AGI")
	assert.Equal(t, "agi", s.String())
	_, ok := progression.ParseStat("luck")
	assert.False(t, ok)
}

func TestProperty_AddXPPreservesInvariant(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEngine(rt, progression.Deps{})
		grants := rapid.SliceOfN(rapid.Int64Range(1, 5_000_000), 1, 30).Draw(rt, "grants")
		for _, amount := range grants {
			before := e.XP()
			level := e.Level()
			if !e.AddXP(amount) {
				rt.Fatalf("grant %d rejected", amount)
			}
			gained := new(big.Int).Sub(e.XP(), before)
			if !gained.IsInt64() || gained.Int64() != amount {
				rt.Fatalf("xp grew by %s, want %d", gained, amount)
			}
			if e.Level() < level {
				rt.Fatalf("level fell from %d to %d", level, e.Level())
			}
			if e.Curve().XPForLevel(e.Level()).Cmp(e.XP()) > 0 || e.Curve().XPForLevel(e.Level()+1).Cmp(e.XP()) <= 0 {
				rt.Fatalf("level %d does not bracket xp %s", e.Level(), e.XP())
			}
			if e.MaxHealth() != 100+(e.Level()-1)*5 {
				rt.Fatalf("max health %d at level %d", e.MaxHealth(), e.Level())
			}
		}
	})
}
