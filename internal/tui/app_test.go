package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/host"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeSource struct {
	snap core.Snapshot
	ok   bool
}

func (f *fakeSource) Get() (core.Snapshot, bool) {
	return f.snap, f.ok
}

func playing(uri string) core.Snapshot {
	return core.Snapshot{
		Status: core.Status{
			IsPlaying: true,
			Track: core.Track{
				Title:      "Song " + uri,
				Author:     "Artist " + uri,
				URI:        "https://example.com/" + uri,
				SourceName: "youtube",
				Length:     200000,
				Position:   10000,
			},
		},
		ArrivedAt: t0,
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(src Source, opts ...Option) Model {
	opts = append([]Option{WithClock(func() time.Time { return t0.Add(30 * time.Second) })}, opts...)
	m := NewModel(src, nil, host.Status{Discord: "Connected", Feed: "Connected", Track: host.NotPlaying}, opts...)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	return next.(Model)
}

func TestViewLoadingBeforeSize(t *testing.T) {
	m := NewModel(nil, nil, host.Status{})
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestViewShowsTrack(t *testing.T) {
	m := newTestModel(&fakeSource{snap: playing("a"), ok: true})

	view := m.View()
	for _, want := range []string{"Song a", "Artist a", "youtube", "Connected", "0:40", "3:20"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestViewWaitingForFeed(t *testing.T) {
	m := newTestModel(&fakeSource{})
	if !strings.Contains(m.View(), "Waiting for the status feed") {
		t.Error("View() should say it is waiting for the feed")
	}
}

func TestViewLiveStream(t *testing.T) {
	snap := playing("a")
	snap.Track.IsStream = true
	m := newTestModel(&fakeSource{snap: snap, ok: true})
	if !strings.Contains(m.View(), "LIVE") {
		t.Error("View() should mark streams as live")
	}
}

func TestQuitKeys(t *testing.T) {
	for _, k := range []string{"q", "ctrl+c"} {
		t.Run(k, func(t *testing.T) {
			m := newTestModel(&fakeSource{})
			next, cmd := m.Update(key(k))
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Errorf("cmd() = %T, want tea.QuitMsg", cmd())
			}
			if next.(Model).View() != "" {
				t.Error("View() should be empty after quitting")
			}
		})
	}
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(&fakeSource{})

	next, _ := m.Update(key("?"))
	m = next.(Model)
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help should be shown")
	}

	next, _ = m.Update(key("esc"))
	m = next.(Model)
	if strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help should be hidden")
	}
}

func TestCopyURI(t *testing.T) {
	var copied string
	m := newTestModel(&fakeSource{snap: playing("a"), ok: true},
		WithClipboard(func(s string) error {
			copied = s
			return nil
		}))

	_, cmd := m.Update(key("c"))
	if cmd == nil {
		t.Fatal("expected a copy command")
	}
	msg := cmd()
	if copied != "https://example.com/a" {
		t.Errorf("copied = %q, want track uri", copied)
	}

	next, _ := m.Update(msg)
	if !strings.Contains(next.(Model).View(), "Copied https://example.com/a") {
		t.Error("status bar should confirm the copy")
	}
}

func TestCopyErrors(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		want string
	}{
		{"nothing playing", &fakeSource{}, "the current track has no link"},
		{"clipboard failure", &fakeSource{snap: playing("a"), ok: true}, "no clipboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(tt.src, WithClipboard(func(string) error {
				return errors.New("no clipboard")
			}))
			_, cmd := m.Update(key("c"))
			next, _ := m.Update(cmd())
			if !strings.Contains(next.(Model).View(), tt.want) {
				t.Errorf("View() missing %q", tt.want)
			}
		})
	}
}

func TestHostUpdates(t *testing.T) {
	updates := make(chan host.Status, 1)
	m := NewModel(&fakeSource{}, updates, host.Status{Discord: "Starting..."})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 30})
	m = next.(Model)

	updates <- host.Status{Discord: "Error: discord is not running", Feed: "Connected"}
	cmd := m.waitForHost()
	next, again := m.Update(cmd())
	m = next.(Model)

	if m.host.Discord != "Error: discord is not running" {
		t.Errorf("host.Discord = %q", m.host.Discord)
	}
	if again == nil {
		t.Error("model should keep listening for host updates")
	}

	close(updates)
	if msg := m.waitForHost()(); msg != nil {
		t.Errorf("closed channel msg = %v, want nil", msg)
	}
}

func TestTickRecordsHistory(t *testing.T) {
	src := &fakeSource{snap: playing("a"), ok: true}
	m := newTestModel(src)

	next, _ := m.Update(tickMsg(t0))
	m = next.(Model)
	src.snap = playing("b")
	next, _ = m.Update(tickMsg(t0))
	m = next.(Model)

	if len(m.history) != 2 {
		t.Fatalf("history has %d entries, want 2", len(m.history))
	}
	if m.history[0].Track.Title != "Song b" {
		t.Errorf("newest entry = %q, want Song b", m.history[0].Track.Title)
	}
}

func TestOpenURI(t *testing.T) {
	var opened string
	m := newTestModel(&fakeSource{snap: playing("a"), ok: true},
		WithOpener(func(s string) error {
			opened = s
			return nil
		}))

	_, cmd := m.Update(key("o"))
	next, _ := m.Update(cmd())
	if opened != "https://example.com/a" {
		t.Errorf("opened = %q, want track uri", opened)
	}
	if !strings.Contains(next.(Model).View(), "Opened https://example.com/a") {
		t.Error("status bar should confirm the link was opened")
	}
}
