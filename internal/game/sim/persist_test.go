package sim_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
	"github.com/cory-johannsen/arpgcore/internal/save"
)

func TestHero_CaptureApplyRoundTrip(t *testing.T) {
	w := newWorld(nil)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{X: 2, Y: -1})
	require.NoError(t, err)
	hero.Progression.AddXP(300)
	require.True(t, hero.Progression.AllocateStat("agi"))
	hero.Unlock("dash")

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := hero.Capture(now)
	assert.Equal(t, save.CurrentVersion, rec.Version)
	assert.Equal(t, hero.ID, rec.CharacterID)
	assert.Equal(t, "warrior", rec.Class)
	assert.Equal(t, save.Position{X: 2, Y: -1}, rec.Position)
	assert.Equal(t, []string{"dash"}, rec.UnlockedAbilities)
	assert.Equal(t, now, rec.SavedAt)

	hero.Unlock("leap")
	assert.Equal(t, []string{"dash"}, rec.UnlockedAbilities, "capture copies abilities")

	other := newWorld(nil)
	fresh, err := other.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)
	require.NoError(t, fresh.Apply(rec))

	assert.Equal(t, hero.ID, fresh.ID)
	assert.Equal(t, hero.Progression.Level(), fresh.Progression.Level())
	assert.Equal(t, 0, big.NewInt(300).Cmp(fresh.Progression.XP()))
	assert.Equal(t, hero.Progression.AllocatedStats(), fresh.Progression.AllocatedStats())
	assert.Equal(t, enemy.Vec2{X: 2, Y: -1}, fresh.Body.Position())
	assert.Equal(t, []string{"dash"}, fresh.Abilities)
	assert.Equal(t, fresh.Progression.MaxHealth(), fresh.Health.Max())
}

func TestHero_ApplyRejectsOtherClass(t *testing.T) {
	w := newWorld(nil)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{})
	require.NoError(t, err)
	before := hero.ID

	err = hero.Apply(save.Record{CharacterID: uuid.New(), Name: "ayla", Class: "mage"})
	assert.Error(t, err)
	assert.Equal(t, before, hero.ID)
}

func TestHero_ApplyRejectsNegativeXP(t *testing.T) {
	w := newWorld(nil)
	hero, err := w.SpawnHero("ayla", warriorClass(), progression.DefaultConfig(), enemy.Vec2{X: 5})
	require.NoError(t, err)

	err = hero.Apply(save.Record{
		CharacterID: uuid.New(),
		Name:        "ayla",
		Progression: progression.Snapshot{Level: 1, XP: big.NewInt(-5)},
		Position:    save.Position{X: 9},
	})
	assert.Error(t, err)
	assert.Equal(t, enemy.Vec2{X: 5}, hero.Body.Position())
}
