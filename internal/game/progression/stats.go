package progression

import (
	"fmt"
	"strings"
)

// Stat names one allocatable attribute.
type Stat int

const (
	Strength Stat = iota
	Intelligence
	Agility
)

// String returns the short stat name.
func (s Stat) String() string {
	switch s {
	case Strength:
		return "str"
	case Intelligence:
		return "int"
	case Agility:
		return "agi"
	default:
		return fmt.Sprintf("stat(%d)", int(s))
	}
}

var statAliases = map[string]Stat{
	"str":          Strength,
	"strength":     Strength,
	"int":          Intelligence,
	"intelligence": Intelligence,
	"agi":          Agility,
	"agility":      Agility,
}

// ParseStat resolves a case-insensitive stat name or alias.
//
// Postcondition: Returns (stat, true) on a match, (0, false) otherwise.
func ParseStat(name string) (Stat, bool) {
	s, ok := statAliases[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Stats is a set of attribute totals.
type Stats struct {
	Strength     int `yaml:"str"`
	Intelligence int `yaml:"int"`
	Agility      int `yaml:"agi"`
}

// Get returns the value of one stat.
func (s Stats) Get(stat Stat) int {
	switch stat {
	case Strength:
		return s.Strength
	case Intelligence:
		return s.Intelligence
	case Agility:
		return s.Agility
	}
	return 0
}

// Add returns the element-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Strength:     s.Strength + o.Strength,
		Intelligence: s.Intelligence + o.Intelligence,
		Agility:      s.Agility + o.Agility,
	}
}

// Sum returns the total of all stats.
func (s Stats) Sum() int { return s.Strength + s.Intelligence + s.Agility }

func (s *Stats) inc(stat Stat) {
	switch stat {
	case Strength:
		s.Strength++
	case Intelligence:
		s.Intelligence++
	case Agility:
		s.Agility++
	}
}

func (s Stats) validate(label string) []string {
	var errs []string
	if s.Strength < 0 || s.Intelligence < 0 || s.Agility < 0 {
		errs = append(errs, label+" stats must not be negative")
	}
	return errs
}

// Derived holds the multipliers computed from total stats.
type Derived struct {
	SpeedMultiplier          float64
	CritChance               float64
	PhysicalDamageMultiplier float64
	SpellPowerMultiplier     float64
}

// Clamp ceilings for derived multipliers.
const (
	MaxSpeedMultiplier  = 2.0
	MaxCritChance       = 0.5
	MaxDamageMultiplier = 3.0
)

// Derive computes multipliers from total stats.
//
// Postcondition: every field is within [0 or 1, its Max* ceiling].
func Derive(total Stats) Derived {
	return Derived{
		SpeedMultiplier:          clamp(1+float64(total.Agility)*0.01, 1, MaxSpeedMultiplier),
		CritChance:               clamp(float64(total.Agility)*0.005, 0, MaxCritChance),
		PhysicalDamageMultiplier: clamp(1+float64(total.Strength)*0.02, 1, MaxDamageMultiplier),
		SpellPowerMultiplier:     clamp(1+float64(total.Intelligence)*0.02, 1, MaxDamageMultiplier),
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
