// Package config provides Viper-based configuration loading for the simulation host.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// SimulationConfig holds settings for the headless simulation host.
type SimulationConfig struct {
	// TickInterval is the wall-clock interval between ticks in real-time mode.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// FixedStep is the simulated seconds advanced per tick.
	FixedStep float64 `mapstructure:"fixed_step"`
	// Ticks is the number of ticks to run in fixed-step mode.
	Ticks int `mapstructure:"ticks"`
	// Seed seeds the deterministic random source; 0 selects the crypto source.
	Seed uint64 `mapstructure:"seed"`
	// ContentDir holds enemies/ and classes/ YAML definitions.
	ContentDir string `mapstructure:"content_dir"`
	// ScriptDir holds Lua hook scripts; empty disables scripting.
	ScriptDir string `mapstructure:"script_dir"`
	// InstructionLimit caps Lua opcodes per hook call; 0 uses the default.
	InstructionLimit int `mapstructure:"instruction_limit"`
	// WatchContent enables hot reload of content definitions.
	WatchContent bool `mapstructure:"watch_content"`
	// Spawns lists the enemy template IDs spawned at startup.
	Spawns []SpawnConfig `mapstructure:"spawns"`
	// Hero describes the controllable character the enemies pursue.
	Hero HeroConfig `mapstructure:"hero"`
}

// SpawnConfig places one enemy from a template.
type SpawnConfig struct {
	Template string  `mapstructure:"template"`
	X        float64 `mapstructure:"x"`
	Y        float64 `mapstructure:"y"`
}

// HeroConfig describes the simulated player character.
type HeroConfig struct {
	Name  string  `mapstructure:"name"`
	Class string  `mapstructure:"class"`
	X     float64 `mapstructure:"x"`
	Y     float64 `mapstructure:"y"`
	// SaveID is the character UUID used when loading and saving progression.
	SaveID string `mapstructure:"save_id"`
}

// StorageConfig selects where save records are written.
type StorageConfig struct {
	// Driver is "file" or "postgres".
	Driver string `mapstructure:"driver"`
	// SaveDir is the directory used by the file driver.
	SaveDir string `mapstructure:"save_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging    LoggingConfig    `mapstructure:"logging"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateSimulation(c.Simulation); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Driver == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateSimulation(s SimulationConfig) error {
	var errs []string
	if s.TickInterval <= 0 {
		errs = append(errs, "simulation.tick_interval must be > 0")
	}
	if s.FixedStep <= 0 {
		errs = append(errs, fmt.Sprintf("simulation.fixed_step must be > 0, got %v", s.FixedStep))
	}
	if s.Ticks < 0 {
		errs = append(errs, fmt.Sprintf("simulation.ticks must be >= 0, got %d", s.Ticks))
	}
	if s.ContentDir == "" {
		errs = append(errs, "simulation.content_dir must not be empty")
	}
	if s.InstructionLimit < 0 {
		errs = append(errs, "simulation.instruction_limit must not be negative")
	}
	if s.Hero.Name == "" {
		errs = append(errs, "simulation.hero.name must not be empty")
	}
	if s.Hero.SaveID != "" {
		if _, err := uuid.Parse(s.Hero.SaveID); err != nil {
			errs = append(errs, fmt.Sprintf("simulation.hero.save_id must be a UUID, got %q", s.Hero.SaveID))
		}
	}
	for i, sp := range s.Spawns {
		if sp.Template == "" {
			errs = append(errs, fmt.Sprintf("simulation.spawns[%d].template must not be empty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Driver {
	case "file":
		if s.SaveDir == "" {
			return errors.New("storage.save_dir must not be empty for the file driver")
		}
		return nil
	case "postgres":
		return nil
	default:
		return fmt.Errorf("storage.driver must be one of [file, postgres], got %q", s.Driver)
	}
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with ARPG_ prefix
	v.SetEnvPrefix("ARPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arpg")
	v.SetDefault("database.password", "arpg")
	v.SetDefault("database.name", "arpg")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("simulation.tick_interval", "16ms")
	v.SetDefault("simulation.fixed_step", 1.0/60.0)
	v.SetDefault("simulation.ticks", 3600)
	v.SetDefault("simulation.content_dir", "content")
	v.SetDefault("simulation.script_dir", "content/scripts")
	v.SetDefault("simulation.hero.name", "hero")
	v.SetDefault("simulation.hero.class", "warrior")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.save_dir", "saves")
}
