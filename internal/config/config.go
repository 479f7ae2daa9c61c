// Package config loads librarian configuration from a YAML file and the
// environment, with command-line flags applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"library-catalog/library"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "library.yaml"

// Config holds the application configuration.
type Config struct {
	App         AppConfig         `yaml:"app"`
	Logger      LoggerConfig      `yaml:"logger"`
	Database    DatabaseConfig    `yaml:"database"`
	Circulation CirculationConfig `yaml:"circulation"`
}

type AppConfig struct {
	Environment string `yaml:"environment" validate:"oneof=development production"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// Format is text, json or empty for auto-detection.
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type DatabaseConfig struct {
	// Path of the SQLite file. Empty keeps the library in memory.
	Path string `yaml:"path"`
}

// CirculationConfig holds the issue/return rules.
type CirculationConfig struct {
	FineRatePerDay int    `yaml:"fine_rate_per_day" validate:"gte=0"`
	Strict         bool   `yaml:"strict"`
	ReturnMode     string `yaml:"return_mode" validate:"oneof=top by-id"`
}

// Policy converts the circulation settings into a library.Policy.
func (c CirculationConfig) Policy() library.Policy {
	return library.Policy{
		FineRatePerDay: c.FineRatePerDay,
		Strict:         c.Strict,
		ReturnMode:     library.ReturnMode(c.ReturnMode),
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		App:      AppConfig{Environment: "development"},
		Logger:   LoggerConfig{Level: "warn"},
		Database: DatabaseConfig{Path: "library.db"},
		Circulation: CirculationConfig{
			FineRatePerDay: library.DefaultFineRate,
			ReturnMode:     string(library.ReturnTop),
		},
	}
}

// Load builds a Config from defaults, then the YAML file at path, then
// LIBRARY_* environment variables. A missing file is not an error unless
// required is set.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("LIBRARY_ENV"); ok {
		c.App.Environment = v
	}
	if v, ok := lookup("LIBRARY_LOG_LEVEL"); ok {
		c.Logger.Level = strings.ToLower(v)
	}
	if v, ok := lookup("LIBRARY_LOG_FORMAT"); ok {
		c.Logger.Format = strings.ToLower(v)
	}
	if v, ok := lookup("LIBRARY_DB_PATH"); ok {
		c.Database.Path = v
	}
	if v, ok := lookup("LIBRARY_FINE_RATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIBRARY_FINE_RATE: %w", err)
		}
		c.Circulation.FineRatePerDay = n
	}
	if v, ok := lookup("LIBRARY_STRICT"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LIBRARY_STRICT: %w", err)
		}
		c.Circulation.Strict = b
	}
	if v, ok := lookup("LIBRARY_RETURN_MODE"); ok {
		c.Circulation.ReturnMode = v
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", e.Namespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
	}
	return nil
}
