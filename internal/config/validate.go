package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	apperrors "github.com/musiccat/musiccat-rpc/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Discord.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("discord: %w", err))
	}
	if err := c.Feed.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("feed: %w", err))
	}
	if err := c.Refresh.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("refresh: %w", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("metrics: %w", err))
	}
	if err := c.Supervisor.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("supervisor: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidConfig, err)
	}
	return nil
}

// Validate checks DiscordConfig for errors.
func (c *DiscordConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.AppID == "" {
		return errors.New("app_id is required when enabled")
	}
	if _, err := strconv.ParseUint(c.AppID, 10, 64); err != nil {
		return fmt.Errorf("invalid app_id: %s (must be numeric)", c.AppID)
	}
	return nil
}

// Validate checks FeedConfig for errors.
func (c *FeedConfig) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
		// valid
	default:
		return fmt.Errorf("invalid url scheme: %q (must be ws or wss)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("url must include a host")
	}
	if c.ReconnectTimeout <= 0 {
		return errors.New("reconnect_timeout must be positive")
	}
	return nil
}

// Validate checks RefreshConfig for errors.
func (c *RefreshConfig) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	return nil
}

// Validate checks MetricsConfig for errors.
func (c *MetricsConfig) Validate() error {
	if c.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	return nil
}

// Validate checks SupervisorConfig for errors.
func (c *SupervisorConfig) Validate() error {
	if c.MaxRestarts < 0 {
		return errors.New("max_restarts must be non-negative")
	}
	if c.RestartDelay < 0 {
		return errors.New("restart_delay must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	switch c.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Format)
	}
	return nil
}
