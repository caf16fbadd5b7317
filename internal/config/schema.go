package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Discord    DiscordConfig    `toml:"discord" json:"discord"`
	Feed       FeedConfig       `toml:"feed" json:"feed"`
	Refresh    RefreshConfig    `toml:"refresh" json:"refresh"`
	MPRIS      MPRISConfig      `toml:"mpris" json:"mpris"`
	Metrics    MetricsConfig    `toml:"metrics" json:"metrics"`
	Supervisor SupervisorConfig `toml:"supervisor" json:"supervisor"`
	Log        LogConfig        `toml:"log" json:"log"`
}

// DiscordConfig holds Discord rich presence settings.
type DiscordConfig struct {
	AppID   string `toml:"app_id" json:"app_id"`
	Enabled bool   `toml:"enabled" json:"enabled"`
}

// FeedConfig holds status feed settings.
type FeedConfig struct {
	URL              string `toml:"url" json:"url"`
	ReconnectTimeout int    `toml:"reconnect_timeout" json:"reconnect_timeout"`
}

// ReconnectTimeoutDuration returns the reconnect timeout.
func (c FeedConfig) ReconnectTimeoutDuration() time.Duration {
	return time.Duration(c.ReconnectTimeout) * time.Second
}

// RefreshConfig holds the periodic presence refresh settings.
type RefreshConfig struct {
	Interval int `toml:"interval" json:"interval"`
}

// IntervalDuration returns the refresh interval.
func (c RefreshConfig) IntervalDuration() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// MPRISConfig holds D-Bus media player settings.
type MPRISConfig struct {
	Enabled bool `toml:"enabled" json:"enabled"`
}

// MetricsConfig holds the metrics and status HTTP server settings.
type MetricsConfig struct {
	Listen string `toml:"listen" json:"listen"`
}

// SupervisorConfig holds the background task restart policy.
type SupervisorConfig struct {
	MaxRestarts  int `toml:"max_restarts" json:"max_restarts"`
	RestartDelay int `toml:"restart_delay" json:"restart_delay"`
}

// RestartDelayDuration returns the delay between restarts.
func (c SupervisorConfig) RestartDelayDuration() time.Duration {
	return time.Duration(c.RestartDelay) * time.Second
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level" json:"level"`
	Format string `toml:"format" json:"format"`
	File   string `toml:"file" json:"file"`
}
