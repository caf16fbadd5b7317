package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindBool
)

// settable lists the keys accepted by Set and their value types.
var settable = map[string]valueKind{
	"discord.app_id":           kindString,
	"discord.enabled":          kindBool,
	"feed.url":                 kindString,
	"feed.reconnect_timeout":   kindInt,
	"refresh.interval":         kindInt,
	"mpris.enabled":            kindBool,
	"metrics.listen":           kindString,
	"supervisor.max_restarts":  kindInt,
	"supervisor.restart_delay": kindInt,
	"log.level":                kindString,
	"log.format":               kindString,
	"log.file":                 kindString,
}

// Keys returns the keys accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Encode writes cfg as TOML with the standard header.
func Encode(w io.Writer, cfg any) error {
	_, _ = fmt.Fprintln(w, "# MusicCat RPC Configuration")
	_, _ = fmt.Fprintln(w, "")

	encoder := toml.NewEncoder(w)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

// Write creates or replaces the config file at path.
func Write(path string, cfg any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := Encode(f, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Set updates a single "section.key" value in the file at path, keeping
// every other value as written. The result is validated before saving.
func Set(path, key, value string) error {
	kind, ok := settable[key]
	if !ok {
		return fmt.Errorf("%w: unknown key %q (supported: %s)", apperrors.ErrInvalidConfig, key, strings.Join(Keys(), ", "))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", apperrors.ErrConfigNotFound, path)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if raw == nil {
		raw = make(map[string]any)
	}

	section, field, _ := strings.Cut(key, ".")
	sectionMap, ok := raw[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		raw[section] = sectionMap
	}

	switch kind {
	case kindInt:
		i, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: value must be an integer for %s", apperrors.ErrInvalidConfig, key)
		}
		sectionMap[field] = int64(i)
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: value must be true or false for %s", apperrors.ErrInvalidConfig, key)
		}
		sectionMap[field] = b
	default:
		sectionMap[field] = value
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	check := Default()
	if _, err := toml.Decode(buf.String(), check); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	check.ApplyDefaults()
	if err := check.Validate(); err != nil {
		return err
	}

	return Write(path, raw)
}
