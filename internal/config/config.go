package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
)

// AppName names the per-user config directory.
const AppName = "musiccat-rpc"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.musiccatrc, $XDG_CONFIG_HOME/musiccat-rpc/config.toml,
// ~/.config/musiccat-rpc/config.toml
func Load() (*Config, error) {
	cfg := Default()

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Path returns the file Load would read, or the preferred location for a new
// config file when none exists yet.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	return filepath.Join(configDir(), "config.toml")
}

func configDir() string {
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return AppName
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfig, AppName)
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".musiccatrc"))
	}
	paths = append(paths, filepath.Join(configDir(), "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Discord
	if v := os.Getenv("MUSICCAT_DISCORD_APP_ID"); v != "" {
		cfg.Discord.AppID = v
	}
	if v := os.Getenv("MUSICCAT_DISCORD_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Discord.Enabled = b
		}
	}

	// Feed
	if v := os.Getenv("MUSICCAT_FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("MUSICCAT_FEED_RECONNECT_TIMEOUT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Feed.ReconnectTimeout = i
		}
	}

	// Refresh
	if v := os.Getenv("MUSICCAT_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Refresh.Interval = i
		}
	}

	// MPRIS
	if v := os.Getenv("MUSICCAT_MPRIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MPRIS.Enabled = b
		}
	}

	// Metrics
	if v := os.Getenv("MUSICCAT_METRICS_LISTEN"); v != "" {
		cfg.Metrics.Listen = v
	}

	// Log
	if v := os.Getenv("MUSICCAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("MUSICCAT_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MUSICCAT_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}
