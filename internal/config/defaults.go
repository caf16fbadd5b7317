package config

// Default values.
const (
	DefaultAppID            = "1275296537991319553"
	DefaultFeedURL          = "wss://bachtran.dev:7443/tracker-websocket"
	DefaultReconnectTimeout = 30
	DefaultRefreshInterval  = 30
	DefaultMaxRestarts      = 5
	DefaultRestartDelay     = 5
)

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Discord: DiscordConfig{
			AppID:   DefaultAppID,
			Enabled: true,
		},
		Feed: FeedConfig{
			URL:              DefaultFeedURL,
			ReconnectTimeout: DefaultReconnectTimeout,
		},
		Refresh: RefreshConfig{
			Interval: DefaultRefreshInterval,
		},
		Supervisor: SupervisorConfig{
			MaxRestarts:  DefaultMaxRestarts,
			RestartDelay: DefaultRestartDelay,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Discord
	if c.Discord.AppID == "" {
		c.Discord.AppID = d.Discord.AppID
	}

	// Feed
	if c.Feed.URL == "" {
		c.Feed.URL = d.Feed.URL
	}
	if c.Feed.ReconnectTimeout == 0 {
		c.Feed.ReconnectTimeout = d.Feed.ReconnectTimeout
	}

	// Refresh
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = d.Refresh.Interval
	}

	// Supervisor; max_restarts = 0 is meaningful, so only the delay defaults.
	if c.Supervisor.RestartDelay == 0 {
		c.Supervisor.RestartDelay = d.Supervisor.RestartDelay
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}
