package tui

import (
	"context"
	"errors"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/musiccat/musiccat-rpc/internal/browser"
	"github.com/musiccat/musiccat-rpc/internal/core"
	"github.com/musiccat/musiccat-rpc/internal/host"
	"github.com/musiccat/musiccat-rpc/internal/tui/components"
	"github.com/musiccat/musiccat-rpc/internal/tui/styles"
)

// DefaultRefreshRate is how often the progress bar is redrawn.
const DefaultRefreshRate = time.Second

var errNoLink = errors.New("the current track has no link")

// Source provides the latest status snapshot. status.Cache satisfies it.
type Source interface {
	Get() (core.Snapshot, bool)
}

// Model is the dashboard model
type Model struct {
	source  Source
	updates <-chan host.Status
	now     func() time.Time
	copy    func(string) error
	open    func(string) error
	refresh time.Duration

	width  int
	height int

	// State
	host    host.Status
	snap    *core.Snapshot
	history []components.HistoryEntry

	// Components
	nowPlaying  *components.NowPlaying
	connections *components.Connections
	historyView *components.History

	showHelp bool

	// Transient status bar message
	notice       string
	noticeErr    bool
	noticeExpiry time.Time

	quitting bool
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		m.now = now
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		m.copy = fn
	}
}

// WithOpener replaces the browser launcher.
func WithOpener(fn func(string) error) Option {
	return func(m *Model) {
		m.open = fn
	}
}

// WithRefreshRate sets how often the view is redrawn.
func WithRefreshRate(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.refresh = d
		}
	}
}

// NewModel creates a dashboard reading snapshots from source and host status
// from updates.
func NewModel(source Source, updates <-chan host.Status, initial host.Status, opts ...Option) Model {
	m := Model{
		source:      source,
		updates:     updates,
		now:         time.Now,
		copy:        clipboard.WriteAll,
		open:        browser.Open,
		refresh:     DefaultRefreshRate,
		host:        initial,
		nowPlaying:  components.NewNowPlaying(),
		connections: components.NewConnections(),
		historyView: components.NewHistory(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.readSnapshot()
	return m
}

// Messages
type tickMsg time.Time
type hostMsg host.Status
type copiedMsg string
type openedMsg string
type errMsg struct{ err error }

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitForHost() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	updates := m.updates
	return func() tea.Msg {
		st, ok := <-updates
		if !ok {
			return nil
		}
		return hostMsg(st)
	}
}

func (m Model) copyURI() tea.Cmd {
	if m.snap == nil || m.snap.Track.URI == "" {
		return func() tea.Msg { return errMsg{errNoLink} }
	}
	uri := m.snap.Track.URI
	write := m.copy
	return func() tea.Msg {
		if err := write(uri); err != nil {
			return errMsg{err}
		}
		return copiedMsg(uri)
	}
}

func (m Model) openURI() tea.Cmd {
	if m.snap == nil || m.snap.Track.URI == "" {
		return func() tea.Msg { return errMsg{errNoLink} }
	}
	uri := m.snap.Track.URI
	open := m.open
	return func() tea.Msg {
		if err := open(uri); err != nil {
			return errMsg{err}
		}
		return openedMsg(uri)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.waitForHost())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.readSnapshot()
		return m, m.tick()

	case hostMsg:
		m.host = host.Status(msg)
		m.readSnapshot()
		return m, m.waitForHost()

	case copiedMsg:
		m.setNotice("Copied "+string(msg), false)
		return m, nil

	case openedMsg:
		m.setNotice("Opened "+string(msg), false)
		return m, nil

	case errMsg:
		m.setNotice("Error: "+msg.err.Error(), true)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "?":
		m.showHelp = true
	case "c":
		return m, m.copyURI()
	case "o":
		return m, m.openURI()
	case "r":
		m.readSnapshot()
	}
	return m, nil
}

// readSnapshot pulls the latest snapshot and records new tracks.
func (m *Model) readSnapshot() {
	if m.source == nil {
		return
	}
	snap, ok := m.source.Get()
	if !ok {
		return
	}
	m.snap = &snap
	if snap.IsPlaying {
		m.history = components.Add(m.history, snap.Track, snap.ArrivedAt)
	}
}

func (m *Model) setNotice(s string, isErr bool) {
	m.notice = s
	m.noticeErr = isErr
	m.noticeExpiry = m.now().Add(5 * time.Second)
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	now := m.now()

	// Left: Now Playing (top), History (bottom). Right: Connections.
	leftWidth := m.width * 60 / 100
	rightWidth := m.width - leftWidth - 2
	topHeight := max(m.height*45/100, 9)
	bottomHeight := max(m.height-topHeight-3, 4)

	nowPlaying := m.nowPlaying.Render(m.snap, now, leftWidth-2, topHeight-2)
	history := m.historyView.Render(m.history, now, leftWidth-2, bottomHeight-2)
	connections := m.connections.Render(m.host, now, rightWidth-2, topHeight+bottomHeight-2)

	leftCol := lipgloss.JoinVertical(lipgloss.Left, nowPlaying, history)
	main := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, connections)

	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar(now))
}

func (m Model) renderStatusBar(now time.Time) string {
	status := styles.Dim.Render("q:quit  ?:help  c:copy link  o:open link  r:refresh")

	if m.notice != "" && now.Before(m.noticeExpiry) {
		if m.noticeErr {
			status = styles.Failed.Render(m.notice)
		} else {
			status = styles.Playing.Render(m.notice)
		}
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "MusicCat RPC - Keyboard Shortcuts"

	help := `
  ` + styles.Discord.Render(title) + `

  q, Ctrl+C    Quit (stops the daemon)
  ?            Toggle help
  c            Copy the track link
  o            Open the track in a browser
  r            Refresh now

  Press ? or Esc to close
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.FocusedBorder.Render(help))
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, source Source, reporter *host.Reporter, opts ...Option) error {
	updates, cancel := reporter.Subscribe()
	defer cancel()

	model := NewModel(source, updates, reporter.Status(), opts...)
	p := tea.NewProgram(model, tea.WithAltScreen())

	stop := context.AfterFunc(ctx, p.Quit)
	defer stop()

	_, err := p.Run()
	return err
}
