package boss

import (
	"fmt"
	"strings"
)

// DefaultInvulnerability is the invulnerability window in seconds granted on
// every phase transition when the config leaves it unset.
const DefaultInvulnerability = 0.5

// Config is a boss's phase table, loaded from the boss block of an enemy
// content file.
type Config struct {
	// Phase2HealthPercent and EnrageHealthPercent are health ratios in (0,1).
	Phase2HealthPercent float64 `yaml:"phase2_health_percent"`
	EnrageHealthPercent float64 `yaml:"enrage_health_percent"`

	Phase2  Multipliers `yaml:"phase2"`
	Enraged Multipliers `yaml:"enraged"`

	InvulnerabilitySeconds float64 `yaml:"invulnerability_seconds"`
	// Triggers maps a phase name to the animation trigger played on entry.
	Triggers map[string]string `yaml:"triggers"`
}

// Validate checks the phase thresholds and multipliers.
//
// Precondition: c must not be nil.
// Postcondition: Returns nil iff 0 < enrage < phase2 < 1, no multiplier is
// negative and every trigger key names a phase.
func (c *Config) Validate() error {
	var errs []string
	if c.Phase2HealthPercent <= 0 || c.Phase2HealthPercent >= 1 {
		errs = append(errs, fmt.Sprintf("phase2_health_percent %v must be in (0,1)", c.Phase2HealthPercent))
	}
	if c.EnrageHealthPercent <= 0 || c.EnrageHealthPercent >= 1 {
		errs = append(errs, fmt.Sprintf("enrage_health_percent %v must be in (0,1)", c.EnrageHealthPercent))
	}
	if c.EnrageHealthPercent >= c.Phase2HealthPercent {
		errs = append(errs, "enrage_health_percent must be below phase2_health_percent")
	}
	errs = append(errs, c.Phase2.validate("phase2")...)
	errs = append(errs, c.Enraged.validate("enraged")...)
	if c.InvulnerabilitySeconds < 0 {
		errs = append(errs, "invulnerability_seconds must not be negative")
	}
	for name := range c.Triggers {
		if _, ok := ParsePhase(name); !ok {
			errs = append(errs, fmt.Sprintf("triggers: unknown phase %q", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("boss config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) invulnerability() float64 {
	if c.InvulnerabilitySeconds == 0 {
		return DefaultInvulnerability
	}
	return c.InvulnerabilitySeconds
}
