package progression

import (
	"errors"
	"fmt"
	"strings"
)

// Config holds the level-driven resource formulas shared by every class.
type Config struct {
	BaseHealth     int `yaml:"base_health"`
	HealthPerLevel int `yaml:"health_per_level"`
	BaseMana       int `yaml:"base_mana"`
	ManaPerLevel   int `yaml:"mana_per_level"`
	// PointsPerLevel is the number of free allocation points granted per level-up.
	PointsPerLevel int `yaml:"points_per_level"`
}

// DefaultConfig returns the stock resource formulas.
func DefaultConfig() Config {
	return Config{
		BaseHealth:     100,
		HealthPerLevel: 5,
		BaseMana:       50,
		ManaPerLevel:   3,
		PointsPerLevel: 3,
	}
}

// MaxHealthAt returns base + (level-1)·perLevel.
func (c Config) MaxHealthAt(level int) int {
	return c.BaseHealth + (level-1)*c.HealthPerLevel
}

// MaxManaAt returns base + (level-1)·perLevel.
func (c Config) MaxManaAt(level int) int {
	return c.BaseMana + (level-1)*c.ManaPerLevel
}

// Validate checks the formulas.
//
// Postcondition: Returns nil iff base health is positive and nothing else is negative.
func (c Config) Validate() error {
	var errs []string
	if c.BaseHealth < 1 {
		errs = append(errs, "base_health must be >= 1")
	}
	if c.HealthPerLevel < 0 {
		errs = append(errs, "health_per_level must not be negative")
	}
	if c.BaseMana < 0 {
		errs = append(errs, "base_mana must not be negative")
	}
	if c.ManaPerLevel < 0 {
		errs = append(errs, "mana_per_level must not be negative")
	}
	if c.PointsPerLevel < 0 {
		errs = append(errs, "points_per_level must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("progression config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ClassProfile is a playable class: its starting stats and the stats it
// gains automatically on every level-up.
type ClassProfile struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Base        Stats  `yaml:"base"`
	Growth      Stats  `yaml:"growth"`
}

// Validate checks that the profile is usable.
//
// Precondition: p must not be nil.
func (p *ClassProfile) Validate() error {
	if p.ID == "" {
		return errors.New("class profile: id must not be empty")
	}
	var errs []string
	if p.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	errs = append(errs, p.Base.validate("base")...)
	errs = append(errs, p.Growth.validate("growth")...)
	if len(errs) > 0 {
		return fmt.Errorf("class profile %q: %s", p.ID, strings.Join(errs, "; "))
	}
	return nil
}
