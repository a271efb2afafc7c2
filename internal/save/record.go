// Package save defines the persisted form of a character and the stores that
// hold it.
package save

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arpgcore/internal/game/progression"
)

// CurrentVersion is the record layout written by Encode.
const CurrentVersion = 3

// legacyNamespace derives stable character IDs for v1 records, which predate IDs.
var legacyNamespace = uuid.MustParse("6f1c2b7e-58a4-4d0e-9a53-2f0e8d1c4b90")

// ErrSaveNotFound is returned when no record exists for a character.
var ErrSaveNotFound = errors.New("save not found")

// Position is a saved world position.
type Position struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Record is one character's save.
type Record struct {
	Version           int                  `yaml:"version"`
	CharacterID       uuid.UUID            `yaml:"character_id"`
	Name              string               `yaml:"name"`
	Class             string               `yaml:"class"`
	Progression       progression.Snapshot `yaml:"progression"`
	Position          Position             `yaml:"position"`
	UnlockedAbilities []string             `yaml:"unlocked_abilities"`
	SavedAt           time.Time            `yaml:"saved_at"`
}

// Validate reports a record that could not be restored.
func (r Record) Validate() error {
	var errs []error
	if r.CharacterID == uuid.Nil {
		errs = append(errs, errors.New("character_id is required"))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if r.Progression.XP != nil && r.Progression.XP.Sign() < 0 {
		errs = append(errs, errors.New("progression.xp must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("save record: %w", errors.Join(errs...))
	}
	return nil
}

// v1 records carried only level, experience and position.
type recordV1 struct {
	Name     string    `yaml:"name"`
	Level    int       `yaml:"level"`
	XP       *big.Int  `yaml:"xp"`
	Position Position  `yaml:"position"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// v2 added the character ID, class and stat allocation.
type recordV2 struct {
	CharacterID     uuid.UUID         `yaml:"character_id"`
	Name            string            `yaml:"name"`
	Class           string            `yaml:"class"`
	Level           int               `yaml:"level"`
	XP              *big.Int          `yaml:"xp"`
	BaseStats       progression.Stats `yaml:"base_stats"`
	AllocatedStats  progression.Stats `yaml:"allocated_stats"`
	AvailablePoints int               `yaml:"available_points"`
	Position        Position          `yaml:"position"`
	SavedAt         time.Time         `yaml:"saved_at"`
}

// Encode serializes r at CurrentVersion.
//
// Postcondition: the encoded record's version is CurrentVersion regardless of r.Version.
func Encode(r Record) ([]byte, error) {
	r.Version = CurrentVersion
	if r.Progression.XP == nil {
		r.Progression.XP = new(big.Int)
	}
	out, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding save %s: %w", r.CharacterID, err)
	}
	return out, nil
}

// Decode parses a record of any supported version and upgrades it to
// CurrentVersion.
//
// Precondition: data must be a YAML document with a version field in [1, CurrentVersion].
// Postcondition: Returns a Record with Version == CurrentVersion and a non-nil
// Progression.XP, or a non-nil error.
func Decode(data []byte) (Record, error) {
	var head struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Record{}, fmt.Errorf("decoding save header: %w", err)
	}

	var (
		r   Record
		err error
	)
	switch head.Version {
	case 1:
		var v1 recordV1
		if err = yaml.Unmarshal(data, &v1); err == nil {
			r = upgradeV1(v1)
		}
	case 2:
		var v2 recordV2
		if err = yaml.Unmarshal(data, &v2); err == nil {
			r = upgradeV2(v2)
		}
	case CurrentVersion:
		err = yaml.Unmarshal(data, &r)
	case 0:
		return Record{}, errors.New("decoding save: missing version")
	default:
		return Record{}, fmt.Errorf("decoding save: unsupported version %d", head.Version)
	}
	if err != nil {
		return Record{}, fmt.Errorf("decoding save v%d: %w", head.Version, err)
	}

	r.Version = CurrentVersion
	if r.Progression.XP == nil {
		r.Progression.XP = new(big.Int)
	}
	if r.UnlockedAbilities == nil {
		r.UnlockedAbilities = []string{}
	}
	return r, nil
}

func upgradeV1(v1 recordV1) Record {
	return Record{
		CharacterID: uuid.NewSHA1(legacyNamespace, []byte(v1.Name)),
		Name:        v1.Name,
		Progression: progression.Snapshot{Level: v1.Level, XP: v1.XP},
		Position:    v1.Position,
		SavedAt:     v1.SavedAt,
	}
}

func upgradeV2(v2 recordV2) Record {
	return Record{
		CharacterID: v2.CharacterID,
		Name:        v2.Name,
		Class:       v2.Class,
		Progression: progression.Snapshot{
			Level:           v2.Level,
			XP:              v2.XP,
			BaseStats:       v2.BaseStats,
			AllocatedStats:  v2.AllocatedStats,
			AvailablePoints: v2.AvailablePoints,
		},
		Position: v2.Position,
		SavedAt:  v2.SavedAt,
	}
}
