package sim

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/save"
)

// Capture builds a save record of the hero's progression, position and
// unlocked abilities.
//
// Postcondition: the record is independent of the hero; later play does not mutate it.
func (h *Hero) Capture(now time.Time) save.Record {
	pos := h.Body.Position()
	return save.Record{
		Version:           save.CurrentVersion,
		CharacterID:       h.ID,
		Name:              h.Name,
		Class:             h.Progression.Class().ID,
		Progression:       h.Progression.Snapshot(),
		Position:          save.Position{X: pos.X, Y: pos.Y},
		UnlockedAbilities: slices.Clone(h.Abilities),
		SavedAt:           now.UTC(),
	}
}

// Apply restores a saved record onto the hero.
//
// Precondition: r.Class must match the hero's class when set.
// Postcondition: on error the hero is unchanged.
func (h *Hero) Apply(r save.Record) error {
	if r.Class != "" && r.Class != h.Progression.Class().ID {
		return fmt.Errorf("applying save %s: class %q does not match hero class %q",
			r.CharacterID, r.Class, h.Progression.Class().ID)
	}
	if err := h.Progression.Restore(r.Progression); err != nil {
		return fmt.Errorf("applying save %s: %w", r.CharacterID, err)
	}
	if r.CharacterID != uuid.Nil {
		h.ID = r.CharacterID
	}
	h.Body.Place(enemy.Vec2{X: r.Position.X, Y: r.Position.Y})
	h.Abilities = slices.Clone(r.UnlockedAbilities)
	return nil
}
