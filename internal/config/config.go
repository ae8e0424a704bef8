// Package config provides Viper-based configuration loading for the
// simulator and its companion tools.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// DataConfig locates the content library on disk.
type DataConfig struct {
	// Dir is the directory holding the content JSON files.
	Dir string `mapstructure:"dir"`
}

// RulesConfig holds the table rules that vary between groups.
type RulesConfig struct {
	// AutoHitOnCrit makes a natural 20 hit regardless of armor class.
	AutoHitOnCrit bool `mapstructure:"auto_hit_on_crit"`

	// IncapacitationExclusive allows at most one incapacitating effect
	// on a character at a time, regardless of kind.
	IncapacitationExclusive bool `mapstructure:"incapacitation_exclusive"`

	// MaxModifierEffects, MaxDotEffects, MaxHotEffects, and
	// MaxTriggerEffects cap how many effects of each kind a single
	// character can carry.
	MaxModifierEffects int `mapstructure:"max_modifier_effects"`
	MaxDotEffects      int `mapstructure:"max_dot_effects"`
	MaxHotEffects      int `mapstructure:"max_hot_effects"`
	MaxTriggerEffects  int `mapstructure:"max_trigger_effects"`
}

// DatabaseConfig holds PostgreSQL connection settings. The database is
// optional; with Enabled false the simulator keeps everything in memory and
// the remaining fields are ignored.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
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

// ScriptingConfig holds the global Lua hook settings. Scenario-local
// scripts load regardless; this section only controls the shared script
// directory that serves encounters without scripts of their own.
type ScriptingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Dir is the directory whose *.lua files form the global hook set.
	Dir string `mapstructure:"dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Data      DataConfig      `mapstructure:"data"`
	Rules     RulesConfig     `mapstructure:"rules"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateData(c.Data); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateRules(c.Rules); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Scripting.Enabled && c.Scripting.Dir == "" {
		errs = append(errs, "scripting.dir must not be empty when scripting is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
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

func validateData(d DataConfig) error {
	if d.Dir == "" {
		return fmt.Errorf("data.dir must not be empty")
	}
	return nil
}

func validateRules(r RulesConfig) error {
	var errs []string
	caps := []struct {
		name  string
		value int
	}{
		{"rules.max_modifier_effects", r.MaxModifierEffects},
		{"rules.max_dot_effects", r.MaxDotEffects},
		{"rules.max_hot_effects", r.MaxHotEffects},
		{"rules.max_trigger_effects", r.MaxTriggerEffects},
	}
	for _, c := range caps {
		if c.value < 1 {
			errs = append(errs, fmt.Sprintf("%s must be >= 1, got %d", c.name, c.value))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result. An empty path skips the
// file and builds the configuration from defaults and environment alone.
//
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()

	// Environment variable overrides with SKIRMISH_ prefix
	v.SetEnvPrefix("SKIRMISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
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
	v.SetDefault("logging.format", "console")

	v.SetDefault("data.dir", "data")

	v.SetDefault("rules.auto_hit_on_crit", true)
	v.SetDefault("rules.incapacitation_exclusive", false)
	v.SetDefault("rules.max_modifier_effects", 5)
	v.SetDefault("rules.max_dot_effects", 3)
	v.SetDefault("rules.max_hot_effects", 3)
	v.SetDefault("rules.max_trigger_effects", 3)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "skirmish")
	v.SetDefault("database.password", "skirmish")
	v.SetDefault("database.name", "skirmish")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("scripting.enabled", false)
	v.SetDefault("scripting.dir", "scripts")
}
