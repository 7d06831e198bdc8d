// Package config resolves killport's settings. Precedence, lowest to
// highest: built-in defaults, config.toml in the user config directory,
// environment variables (with .env support). Command-line flags override
// all of these at the CLI layer.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	defaultSignal = "sigterm"
	defaultGrace  = "500ms"
)

// Config holds the tunable behavior of a kill run.
type Config struct {
	Signal      string `env:"KILLPORT_SIGNAL" toml:"signal"`
	GracePeriod string `env:"KILLPORT_GRACE_PERIOD" toml:"grace_period"`
	AnyState    bool   `env:"KILLPORT_ANY_STATE" toml:"any_state"`

	// Grace is GracePeriod parsed, filled in by Load.
	Grace time.Duration `env:"-" toml:"-"`
}

// Load resolves the effective configuration from the default config
// file location and the environment.
func Load() (Config, error) {
	return load(defaultPath())
}

func defaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "killport", "config.toml")
}

func load(path string) (Config, error) {
	cfg := Config{
		Signal:      defaultSignal,
		GracePeriod: defaultGrace,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// no config file is the common case
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// .env in the working directory, then the real environment on top.
	godotenv.Load()
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	grace, err := time.ParseDuration(cfg.GracePeriod)
	if err != nil {
		return Config{}, fmt.Errorf("grace period %q: %w", cfg.GracePeriod, err)
	}
	cfg.Grace = grace

	return cfg, nil
}
