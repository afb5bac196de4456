package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App     AppConfig
	Ledger  LedgerConfig
	Zones   ZonesConfig
	Catalog CatalogConfig
	Log     LogConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LedgerConfig holds ledger database settings. The database is a single
// SQLite file shared by every process on the host.
type LedgerConfig struct {
	Path        string        // path to the SQLite database file
	BusyTimeout time.Duration // how long a writer waits on a locked database
}

// ZonesConfig holds warehouse layout settings
type ZonesConfig struct {
	Path  string // path to the zone configuration JSON file
	Watch bool   // reload the layout when the file changes
}

// CatalogConfig holds product master data settings
type CatalogConfig struct {
	Path string // path to the product catalog CSV (empty = no catalog)
}

// LogConfig holds logging configuration. Empty fields fall back to the
// profile selected by app.env (production logs JSON, everything else gets
// the development console).
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with LABEL_ prefix (e.g., LABEL_LEDGER_PATH)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.labelops")
	v.AddConfigPath("/etc/labelops")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("LABEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Ledger: LedgerConfig{
			Path:        v.GetString("ledger.path"),
			BusyTimeout: v.GetDuration("ledger.busy_timeout"),
		},
		Zones: ZonesConfig{
			Path:  v.GetString("zones.path"),
			Watch: v.GetBool("zones.watch"),
		},
		Catalog: CatalogConfig{
			Path: v.GetString("catalog.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "label-engine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = "label_ledger.db"
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = 5 * time.Second
	}
	if cfg.Zones.Path == "" {
		cfg.Zones.Path = "zones.json"
	}
	// Log fields stay empty here: the environment profile fills them in.
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Ledger.BusyTimeout < 0 {
		return fmt.Errorf("ledger.busy_timeout cannot be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console; got %q", c.Log.Format)
	}
	return nil
}
