// Package content loads enemy definitions, boss phase tables, class
// profiles and progression formulas from a YAML content tree:
//
//	<dir>/enemies/*.yaml
//	<dir>/classes/*.yaml
//	<dir>/progression.yaml   (optional)
package content

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/arpgcore/internal/game/boss"
	"github.com/cory-johannsen/arpgcore/internal/game/enemy"
	"github.com/cory-johannsen/arpgcore/internal/game/progression"
)

var (
	// ErrUnknownTemplate is returned when an enemy template ID is not loaded.
	ErrUnknownTemplate = errors.New("unknown enemy template")
	// ErrUnknownClass is returned when a class profile ID is not loaded.
	ErrUnknownClass = errors.New("unknown class")
)

// EnemyDef is one enemy content file: the template plus an optional boss
// phase table.
type EnemyDef struct {
	enemy.Template `yaml:",inline"`
	Boss           *boss.Config `yaml:"boss"`
}

// IsBoss reports whether the definition carries a phase table.
func (d *EnemyDef) IsBoss() bool { return d.Boss != nil }

// Validate checks the template and, when present, the boss block.
func (d *EnemyDef) Validate() error {
	if err := d.Template.Validate(); err != nil {
		return err
	}
	if d.Boss != nil {
		if err := d.Boss.Validate(); err != nil {
			return fmt.Errorf("enemy %q: %w", d.ID, err)
		}
	}
	return nil
}

// LoadEnemyFromBytes parses and validates one enemy definition.
//
// Postcondition: Returns a valid definition or a non-nil error.
func LoadEnemyFromBytes(data []byte) (*EnemyDef, error) {
	var def EnemyDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parsing enemy yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadClassFromBytes parses and validates one class profile.
func LoadClassFromBytes(data []byte) (*progression.ClassProfile, error) {
	var class progression.ClassProfile
	if err := yaml.Unmarshal(data, &class); err != nil {
		return nil, fmt.Errorf("parsing class yaml: %w", err)
	}
	if err := class.Validate(); err != nil {
		return nil, err
	}
	return &class, nil
}

// LoadProgressionFromBytes parses progression formulas over DefaultConfig, so
// omitted keys keep their defaults.
func LoadProgressionFromBytes(data []byte) (progression.Config, error) {
	cfg := progression.DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return progression.Config{}, fmt.Errorf("parsing progression yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return progression.Config{}, err
	}
	return cfg, nil
}

// Library is an immutable, validated set of content. A reload produces a
// new Library rather than mutating an existing one.
type Library struct {
	enemies     map[string]*EnemyDef
	classes     map[string]*progression.ClassProfile
	progression progression.Config
}

// NewLibrary indexes already-validated definitions by ID.
//
// Postcondition: Returns an error when two definitions share an ID.
func NewLibrary(enemies []*EnemyDef, classes []*progression.ClassProfile, cfg progression.Config) (*Library, error) {
	lib := &Library{
		enemies:     make(map[string]*EnemyDef, len(enemies)),
		classes:     make(map[string]*progression.ClassProfile, len(classes)),
		progression: cfg,
	}
	for _, def := range enemies {
		if _, dup := lib.enemies[def.ID]; dup {
			return nil, fmt.Errorf("duplicate enemy template %q", def.ID)
		}
		lib.enemies[def.ID] = def
	}
	for _, class := range classes {
		if _, dup := lib.classes[class.ID]; dup {
			return nil, fmt.Errorf("duplicate class %q", class.ID)
		}
		lib.classes[class.ID] = class
	}
	return lib, nil
}

// Load reads a content tree rooted at dir.
//
// Precondition: dir must contain enemies/ and classes/ subdirectories.
// Postcondition: Returns a Library or an error naming the offending file.
func Load(dir string) (*Library, error) {
	var enemies []*EnemyDef
	err := loadDir(filepath.Join(dir, "enemies"), func(data []byte) error {
		def, err := LoadEnemyFromBytes(data)
		if err != nil {
			return err
		}
		enemies = append(enemies, def)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var classes []*progression.ClassProfile
	err = loadDir(filepath.Join(dir, "classes"), func(data []byte) error {
		class, err := LoadClassFromBytes(data)
		if err != nil {
			return err
		}
		classes = append(classes, class)
		return nil
	})
	if err != nil {
		return nil, err
	}

	cfg := progression.DefaultConfig()
	path := filepath.Join(dir, "progression.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = LoadProgressionFromBytes(data); err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	return NewLibrary(enemies, classes, cfg)
}

func loadDir(dir string, load func(data []byte) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading content dir %q: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !isContentFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		if err := load(data); err != nil {
			return fmt.Errorf("loading %q: %w", path, err)
		}
	}
	return nil
}

func isContentFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Enemy returns the definition for id.
//
// Postcondition: Returns ErrUnknownTemplate (wrapped) when id is not loaded.
func (l *Library) Enemy(id string) (*EnemyDef, error) {
	def, ok := l.enemies[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return def, nil
}

// Class returns the class profile for id.
//
// Postcondition: Returns ErrUnknownClass (wrapped) when id is not loaded.
func (l *Library) Class(id string) (*progression.ClassProfile, error) {
	class, ok := l.classes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, id)
	}
	return class, nil
}

// Progression returns the progression formulas.
func (l *Library) Progression() progression.Config { return l.progression }

// EnemyIDs returns every loaded template ID in sorted order.
func (l *Library) EnemyIDs() []string {
	ids := make([]string, 0, len(l.enemies))
	for id := range l.enemies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ClassIDs returns every loaded class ID in sorted order.
func (l *Library) ClassIDs() []string {
	ids := make([]string, 0, len(l.classes))
	for id := range l.classes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
