package wizard

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/charmbracelet/huh"

	"github.com/musiccat/musiccat-rpc/internal/config"
)

// configAnswers holds the form values as the form edits them.
type configAnswers struct {
	FeedURL        string
	DiscordEnabled bool
	AppID          string
	RefreshSeconds string
	MPRISEnabled   bool
	MetricsListen  string
	LogLevel       string
}

func answersFrom(cfg *config.Config) *configAnswers {
	return &configAnswers{
		FeedURL:        cfg.Feed.URL,
		DiscordEnabled: cfg.Discord.Enabled,
		AppID:          cfg.Discord.AppID,
		RefreshSeconds: strconv.Itoa(cfg.Refresh.Interval),
		MPRISEnabled:   cfg.MPRIS.Enabled,
		MetricsListen:  cfg.Metrics.Listen,
		LogLevel:       cfg.Log.Level,
	}
}

// apply copies the answers into cfg.
func (a *configAnswers) apply(cfg *config.Config) error {
	interval, err := strconv.Atoi(a.RefreshSeconds)
	if err != nil {
		return fmt.Errorf("refresh interval: %w", err)
	}
	cfg.Feed.URL = a.FeedURL
	cfg.Discord.Enabled = a.DiscordEnabled
	cfg.Discord.AppID = a.AppID
	cfg.Refresh.Interval = interval
	cfg.MPRIS.Enabled = a.MPRISEnabled
	cfg.Metrics.Listen = a.MetricsListen
	cfg.Log.Level = a.LogLevel
	return nil
}

// RunConfig asks for the common settings, starting from the values in cfg,
// and writes the answers back into cfg.
func RunConfig(cfg *config.Config) error {
	a := answersFrom(cfg)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Status feed").
				Description("Websocket URL of the MusicCat tracker").
				Value(&a.FeedURL).
				Validate(validateFeedURL),
			huh.NewInput().
				Title("Refresh interval").
				Description("Seconds between presence refreshes").
				Value(&a.RefreshSeconds).
				Validate(validatePositive),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show the current track in Discord?").
				Value(&a.DiscordEnabled),
			huh.NewInput().
				Title("Discord application ID").
				Value(&a.AppID).
				Validate(validateAppID),
			huh.NewConfirm().
				Title("Publish to MPRIS (Linux media controls)?").
				Value(&a.MPRISEnabled),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Metrics address").
				Description("host:port for /metrics and /status, empty to disable").
				Value(&a.MetricsListen),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&a.LogLevel),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	return a.apply(cfg)
}

func validateFeedURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("must start with ws:// or wss://")
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a whole number above zero")
	}
	return nil
}

func validateAppID(s string) error {
	if _, err := strconv.ParseUint(s, 10, 64); err != nil {
		return fmt.Errorf("must be numeric")
	}
	return nil
}
