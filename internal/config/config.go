// Package config loads the wifictl configuration file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/shazow/wifictl/wifi"
)

// Config is the effective configuration after the file has been applied to
// the defaults.
type Config struct {
	// ProfileDir is where exported profiles are cached.
	ProfileDir string
	// ConnectTimeout bounds how long a connection attempt is waited for.
	ConnectTimeout time.Duration
	// Interface selects an interface by GUID or description. Empty means all.
	Interface string
	LogLevel  slog.Level
	// LogFile, when set, receives the log as well as stderr.
	LogFile string
}

// configFile represents the structure of the config TOML file.
// We use pointers so we can distinguish between a missing value and a zero
// value. This allows users to override only the settings they want.
type configFile struct {
	ProfileDir     *string `toml:"ProfileDir,omitempty"`
	ConnectTimeout *string `toml:"ConnectTimeout,omitempty"`
	Interface      *string `toml:"Interface,omitempty"`
	LogLevel       *string `toml:"LogLevel,omitempty"`
	LogFile        *string `toml:"LogFile,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return Config{
		ProfileDir:     filepath.Join(dir, "wifictl", "profiles"),
		ConnectTimeout: wifi.DefaultConnectTimeout,
		LogLevel:       slog.LevelWarn,
	}
}

// Load reads a TOML config from r and applies it over the defaults. A nil
// reader yields the defaults.
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	if r == nil {
		return cfg, nil
	}

	var cf configFile
	if _, err := toml.NewDecoder(r).Decode(&cf); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	if cf.ProfileDir != nil {
		cfg.ProfileDir = *cf.ProfileDir
	}
	if cf.ConnectTimeout != nil {
		d, err := time.ParseDuration(*cf.ConnectTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid ConnectTimeout %q: %w", *cf.ConnectTimeout, err)
		}
		cfg.ConnectTimeout = d
	}
	if cf.Interface != nil {
		cfg.Interface = *cf.Interface
	}
	if cf.LogLevel != nil {
		if err := cfg.LogLevel.UnmarshalText([]byte(*cf.LogLevel)); err != nil {
			return cfg, fmt.Errorf("invalid LogLevel %q: %w", *cf.LogLevel, err)
		}
	}
	if cf.LogFile != nil {
		cfg.LogFile = *cf.LogFile
	}
	return cfg, nil
}

// LoadFile loads the config at path. An empty path yields the defaults.
func LoadFile(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Default(), err
	}
	defer f.Close()
	return Load(f)
}
