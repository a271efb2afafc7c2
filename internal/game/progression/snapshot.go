package progression

import (
	"fmt"
	"math/big"
	"strings"

	"go.uber.org/zap"
)

// Snapshot is the flat, serializable form of an Engine's state.
type Snapshot struct {
	Level           int      `yaml:"level" json:"level"`
	XP              *big.Int `yaml:"xp" json:"xp"`
	BaseStats       Stats    `yaml:"base_stats" json:"base_stats"`
	AllocatedStats  Stats    `yaml:"allocated_stats" json:"allocated_stats"`
	AvailablePoints int      `yaml:"available_points" json:"available_points"`
}

// Snapshot captures the engine's state.
//
// Postcondition: the returned XP is a copy.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Level:           e.level,
		XP:              e.XP(),
		BaseStats:       e.base,
		AllocatedStats:  e.allocated,
		AvailablePoints: e.points,
	}
}

// Restore replaces the engine's state with s.
//
// The level is recomputed from the experience so a snapshot whose level
// disagrees with its XP cannot break the level invariant. Maximum health and
// mana are re-derived and refilled. Level-up observers are not notified.
//
// Postcondition: Returns a non-nil error and leaves the engine unchanged when
// XP, a stat or the point balance is negative.
func (e *Engine) Restore(s Snapshot) error {
	xp := new(big.Int)
	if s.XP != nil {
		xp.Set(s.XP)
	}
	var errs []string
	if xp.Sign() < 0 {
		errs = append(errs, "xp must not be negative")
	}
	errs = append(errs, s.BaseStats.validate("base")...)
	errs = append(errs, s.AllocatedStats.validate("allocated")...)
	if s.AvailablePoints < 0 {
		errs = append(errs, "available_points must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("restoring %q: %s", e.id, strings.Join(errs, "; "))
	}

	level := e.curve.LevelFromXP(xp)
	if level != s.Level {
		e.logger.Debug("snapshot level normalized from xp",
			zap.String("character", e.id),
			zap.Int("stored", s.Level),
			zap.Int("level", level),
		)
	}
	e.level = level
	e.xp = xp
	e.base = s.BaseStats
	e.allocated = s.AllocatedStats
	e.points = s.AvailablePoints
	e.applyResources()
	return nil
}
