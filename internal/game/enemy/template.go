package enemy

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// AlertDuration is the pause in seconds between detecting a target and chasing it.
	AlertDuration = 0.5
	// IdleMin and IdleMax bound the random idle timer in seconds.
	IdleMin = 1.0
	IdleMax = 3.0
	// DefaultDespawnDelay is used when a template leaves despawn_delay unset.
	DefaultDespawnDelay = 2.0
)

// Template is the immutable configuration of an enemy type, loaded from YAML.
type Template struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// CanMove is false for stationary enemies (turrets, plants); they idle
	// wherever a mobile enemy would patrol.
	CanMove      bool    `yaml:"can_move"`
	MoveSpeed    float64 `yaml:"move_speed"`
	PatrolRadius float64 `yaml:"patrol_radius"`

	DetectionRange float64 `yaml:"detection_range"`
	LoseAggroRange float64 `yaml:"lose_aggro_range"`
	AttackRange    float64 `yaml:"attack_range"`

	// AttackCooldown is the base cooldown in seconds before a boss multiplier.
	AttackCooldown float64 `yaml:"attack_cooldown"`
	// AttackDuration is how long one attack takes before completion is signalled.
	AttackDuration float64 `yaml:"attack_duration"`
	StunDuration   float64 `yaml:"stun_duration"`
	ContactDamage  int     `yaml:"contact_damage"`
	MaxHealth      int     `yaml:"max_health"`
	// DespawnDelay is the seconds a dead enemy stays in the world. 0 = DefaultDespawnDelay.
	DespawnDelay float64 `yaml:"despawn_delay"`
	XPReward     int64   `yaml:"xp_reward"`

	// Animations and Sounds map a state name to the trigger or clip
	// requested on entering that state.
	Animations map[string]string `yaml:"animations"`
	Sounds     map[string]string `yaml:"sounds"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff every field is in range; otherwise an error
// listing all violations.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.New("enemy template: id must not be empty")
	}
	var errs []string
	if t.Name == "" {
		errs = append(errs, "name must not be empty")
	}
	if t.MaxHealth < 1 {
		errs = append(errs, "max_health must be >= 1")
	}
	if t.CanMove && t.MoveSpeed <= 0 {
		errs = append(errs, "move_speed must be > 0 for a mobile enemy")
	}
	if t.PatrolRadius < 0 {
		errs = append(errs, "patrol_radius must not be negative")
	}
	if t.DetectionRange < 0 {
		errs = append(errs, "detection_range must not be negative")
	}
	if t.AttackRange <= 0 {
		errs = append(errs, "attack_range must be > 0")
	}
	if t.LoseAggroRange < t.AttackRange {
		errs = append(errs, "lose_aggro_range must be >= attack_range")
	}
	if t.LoseAggroRange < t.DetectionRange {
		errs = append(errs, "lose_aggro_range must be >= detection_range")
	}
	if t.AttackCooldown < 0 || t.AttackDuration < 0 || t.StunDuration < 0 || t.DespawnDelay < 0 {
		errs = append(errs, "durations must not be negative")
	}
	if t.ContactDamage < 0 {
		errs = append(errs, "contact_damage must not be negative")
	}
	if t.XPReward < 0 {
		errs = append(errs, "xp_reward must not be negative")
	}
	for name := range t.Animations {
		if _, ok := ParseState(name); !ok {
			errs = append(errs, fmt.Sprintf("animations: unknown state %q", name))
		}
	}
	for name := range t.Sounds {
		if _, ok := ParseState(name); !ok {
			errs = append(errs, fmt.Sprintf("sounds: unknown state %q", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("enemy template %q: %s", t.ID, strings.Join(errs, "; "))
	}
	return nil
}

// despawnDelay returns the effective post-death removal delay.
func (t *Template) despawnDelay() float64 {
	if t.DespawnDelay <= 0 {
		return DefaultDespawnDelay
	}
	return t.DespawnDelay
}
