// Package config loads process settings for the monetary package and
// installs them as process-wide defaults.
//
// Settings come from, in increasing priority: built-in defaults, an optional
// configuration file, a .env file in the working directory, and environment
// variables with the MONETARY_ prefix.
package config

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/govalues/monetary"
	"github.com/govalues/monetary/sqlstore"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/spf13/viper"
	_ "modernc.org/sqlite" // SQLite driver
)

// Settings holds the process-wide monetary settings.
type Settings struct {
	// Rounding is the name of the default rounding mode, such as "HALF_EVEN".
	// Empty means that rounding has to be requested explicitly.
	Rounding string `mapstructure:"rounding"`

	// RescaleEachStep makes chained operations rescale after every step.
	RescaleEachStep bool `mapstructure:"rescale_each_step"`

	// RegistryFile is a YAML or JSON registry description to install as the
	// default registry.
	RegistryFile string `mapstructure:"registry_file"`

	// RegistryDSN and RegistryDriver select a database holding the default
	// registry. RegistryFile takes precedence.
	RegistryDSN    string `mapstructure:"registry_dsn"`
	RegistryDriver string `mapstructure:"registry_driver"`

	// LogLevel is the minimum level of package log records.
	LogLevel string `mapstructure:"log_level"`
}

// setDefaults sets all default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("rounding", "")
	v.SetDefault("rescale_each_step", false)
	v.SetDefault("registry_file", "")
	v.SetDefault("registry_dsn", "")
	v.SetDefault("registry_driver", "sqlite")
	v.SetDefault("log_level", "info")
}

// Load reads the settings. An empty path skips the configuration file.
func Load(path string) (*Settings, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("MONETARY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &s, nil
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	if _, err := monetary.ParseRoundingMode(s.Rounding); err != nil {
		return err
	}
	if _, err := s.level(); err != nil {
		return err
	}
	switch s.RegistryDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: registry driver %q", monetary.ErrInvalidConfig, s.RegistryDriver)
	}
	return nil
}

func (s *Settings) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", monetary.ErrInvalidConfig, s.LogLevel)
	}
	return l, nil
}

// Context returns the calculation context described by the settings,
// using r to resolve currencies.
func (s *Settings) Context(r *monetary.Registry) (monetary.Context, error) {
	mode, err := monetary.ParseRoundingMode(s.Rounding)
	if err != nil {
		return monetary.Context{}, err
	}
	return monetary.Context{
		Rounding:        mode,
		RescaleEachStep: s.RescaleEachStep,
		Registry:        r,
	}, nil
}

// Registry returns the registry selected by the settings, or nil if the
// settings keep the built-in registry.
func (s *Settings) Registry(ctx context.Context) (*monetary.Registry, error) {
	switch {
	case s.RegistryFile != "":
		f, err := os.Open(s.RegistryFile)
		if err != nil {
			return nil, fmt.Errorf("opening registry file: %w", err)
		}
		defer f.Close()
		cfg, err := monetary.LoadRegistryConfig(f)
		if err != nil {
			return nil, fmt.Errorf("reading registry file %s: %w", s.RegistryFile, err)
		}
		return monetary.Build(cfg)
	case s.RegistryDSN != "":
		db, err := sql.Open(s.RegistryDriver, s.RegistryDSN)
		if err != nil {
			return nil, fmt.Errorf("opening registry database: %w", err)
		}
		defer db.Close()
		dialect := sqlstore.SQLite
		if s.RegistryDriver == "postgres" {
			dialect = sqlstore.Postgres
		}
		return sqlstore.New(db, sqlstore.WithDialect(dialect)).Registry(ctx)
	}
	return nil, nil
}

// Apply installs the settings: the package log level, the default registry
// if one is configured, and the default calculation context.
func (s *Settings) Apply(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	lvl, _ := s.level()
	monetary.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	r, err := s.Registry(ctx)
	if err != nil {
		return err
	}
	if r != nil {
		monetary.SetDefault(r)
	}
	if s.RegistryFile != "" && s.RegistryDSN != "" {
		slog.Warn("registry_dsn ignored, registry_file takes precedence", "registry_file", s.RegistryFile)
	}

	// The context keeps a nil registry so it follows later default swaps.
	c, err := s.Context(nil)
	if err != nil {
		return err
	}
	if c.Rounding == monetary.RoundingUnset {
		slog.Warn("no default rounding mode, inexact operations will fail")
	}
	monetary.SetDefaultContext(c)
	return nil
}
