package wizard

import (
	"testing"

	"github.com/musiccat/musiccat-rpc/internal/config"
)

func TestAnswersRoundTrip(t *testing.T) {
	cfg := config.Default()
	a := answersFrom(cfg)
	a.FeedURL = "ws://localhost:7443/tracker-websocket"
	a.RefreshSeconds = "15"
	a.MPRISEnabled = true
	a.LogLevel = "debug"

	if err := a.apply(cfg); err != nil {
		t.Fatalf("apply() error = %v", err)
	}
	if cfg.Feed.URL != "ws://localhost:7443/tracker-websocket" {
		t.Errorf("Feed.URL = %q", cfg.Feed.URL)
	}
	if cfg.Refresh.Interval != 15 {
		t.Errorf("Refresh.Interval = %d, want 15", cfg.Refresh.Interval)
	}
	if !cfg.MPRIS.Enabled || cfg.Log.Level != "debug" {
		t.Errorf("MPRIS.Enabled = %v, Log.Level = %q", cfg.MPRIS.Enabled, cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	a.RefreshSeconds = "soon"
	if err := a.apply(cfg); err == nil {
		t.Error("apply() should reject a non-numeric interval")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(string) error
		in      string
		wantErr bool
	}{
		{"wss url", validateFeedURL, "wss://bachtran.dev:7443/tracker-websocket", false},
		{"http url", validateFeedURL, "https://example.com", true},
		{"no host", validateFeedURL, "ws://", true},
		{"positive", validatePositive, "30", false},
		{"zero", validatePositive, "0", true},
		{"text", validatePositive, "abc", true},
		{"app id", validateAppID, config.DefaultAppID, false},
		{"bad app id", validateAppID, "musiccat", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
