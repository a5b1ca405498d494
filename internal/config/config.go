// Package config holds wattwatch configuration and the model energy registry.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/theirongolddev/wattwatch/internal/logger"
)

// Defaults applied when the user leaves a field unset or sets it to an
// invalid value.
const (
	DefaultElectricityRate = 0.25
	DefaultCurrency        = "EUR"
)

// Environment overrides, checked before the config file.
const (
	EnvElectricityRate = "WATTWATCH_ELECTRICITY_RATE"
	EnvCurrency        = "WATTWATCH_CURRENCY"
)

// Config is the user's partial configuration as read from config.toml.
// Nil fields fall back to defaults during Resolve.
type Config struct {
	ElectricityRate *float64                   `toml:"electricity_rate,omitempty"`
	Currency        *string                    `toml:"currency,omitempty"`
	Theme           string                     `toml:"theme,omitempty"`
	Profiles        map[string]ProfileOverride `toml:"profiles,omitempty"`
}

// Settings is the resolved configuration shared by every session.
type Settings struct {
	ElectricityRate float64 // currency units per kWh
	Currency        string
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		ElectricityRate: DefaultElectricityRate,
		Currency:        DefaultCurrency,
	}
}

// Resolve validates cfg field by field. An invalid field is logged at
// error level and replaced by its default; valid fields are kept.
func Resolve(cfg Config, log *zap.Logger) Settings {
	log = logger.OrNop(log)
	s := DefaultSettings()

	if cfg.ElectricityRate != nil {
		rate := *cfg.ElectricityRate
		if rate > 0 && !math.IsInf(rate, 1) {
			s.ElectricityRate = rate
		} else {
			log.Error("invalid electricity rate (must be positive), using default",
				zap.Float64("value", rate),
				zap.Float64("default", DefaultElectricityRate),
			)
		}
	}

	if cfg.Currency != nil {
		if strings.TrimSpace(*cfg.Currency) != "" {
			s.Currency = *cfg.Currency
		} else {
			log.Error("invalid currency (cannot be empty), using default",
				zap.String("default", DefaultCurrency),
			)
		}
	}

	return s
}

// Registry builds the profile registry for cfg: defaults plus any
// [profiles.<model>] overrides.
func (c Config) Registry(log *zap.Logger) *Registry {
	return NewRegistry(MergeProfiles(DefaultProfiles, c.Profiles, log), log)
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wattwatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wattwatch")
}

// CacheDir returns the XDG cache directory, home of the daemon's pid,
// state and log files.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "wattwatch")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "wattwatch")
}

// Path returns the full path to the default config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file at the default path.
func Load() (Config, error) {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, returning an empty Config if
// it doesn't exist.
func LoadFrom(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the local user
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // user config path
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ApplyEnv layers WATTWATCH_* environment variables over cfg.
// A rate that doesn't parse as a number is logged and ignored.
func ApplyEnv(cfg Config, log *zap.Logger) Config {
	log = logger.OrNop(log)

	if raw, ok := os.LookupEnv(EnvElectricityRate); ok {
		rate, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			log.Error("ignoring malformed electricity rate from environment",
				zap.String("env", EnvElectricityRate),
				zap.String("value", raw),
			)
		} else {
			cfg.ElectricityRate = &rate
		}
	}
	if cur, ok := os.LookupEnv(EnvCurrency); ok {
		cfg.Currency = &cur
	}

	return cfg
}
