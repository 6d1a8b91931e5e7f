// Package app is the root Bubble Tea model of the como viewer. It keeps a
// catalog of the sources announced by one server and renders them as a
// table with detail and event log overlays.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/como-monitor/como/internal/client"
	"github.com/como-monitor/como/internal/theme"
	"github.com/como-monitor/como/internal/views/dashboard"
	"github.com/como-monitor/como/internal/views/debug"
	"github.com/como-monitor/como/internal/views/detail"
	"github.com/como-monitor/como/internal/views/status"
)

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayDetail
	OverlayDebug
)

// Watcher is the connection the model drives. *client.Watcher implements
// it.
type Watcher interface {
	Addr() string
	Listen(ctx context.Context) tea.Cmd
	ReadLoop(ctx context.Context) tea.Cmd
	Resync() error
}

// Model is the root Bubble Tea model.
type Model struct {
	watcher Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time

	keys   KeyMap
	width  int
	height int

	catalog *client.Catalog
	overlay Overlay

	statusBar status.Model
	dashboard dashboard.Model
	debugLog  debug.Model

	connected bool
	// everConnected distinguishes the first dial from a reconnect.
	everConnected bool
	lastErr       error
}

func New(w Watcher) Model {
	ctx, cancel := context.WithCancel(context.Background())
	return Model{
		watcher:   w,
		ctx:       ctx,
		cancel:    cancel,
		now:       time.Now,
		keys:      DefaultKeyMap(),
		catalog:   client.NewCatalog(),
		statusBar: status.New(w.Addr()),
		dashboard: dashboard.New(),
		debugLog:  debug.New(),
	}
}

// Init starts the connection.
func (m Model) Init() tea.Cmd {
	return m.watcher.Listen(m.ctx)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.dashboard.SetSize(msg.Width, msg.Height-5)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case client.ConnectedMsg:
		m.connected = true
		m.everConnected = true
		m.lastErr = nil
		m.statusBar.Connected = true
		// The server answers the list request with every source; drop what
		// may have been withdrawn while disconnected.
		m.catalog.Reset()
		m.refresh()
		m.debugLog.Addf(debug.KindConn, "connected to %s", msg.Addr)
		return m, m.watcher.ReadLoop(m.ctx)

	case client.DisconnectedMsg:
		m.connected = false
		m.lastErr = msg.Err
		m.statusBar.Connected = false
		if msg.Err != nil && !errors.Is(msg.Err, client.ErrNotConnected) {
			m.debugLog.Addf(debug.KindError, "disconnected: %v", msg.Err)
		}
		return m, m.watcher.Listen(m.ctx)

	case client.SourceMsg:
		st := m.catalog.Apply(msg.Snapshot, m.now())
		if st.Updates == 0 {
			m.debugLog.Addf(debug.KindSource, "source %s (%s)", msg.Snapshot.Name, msg.Snapshot.TypeName)
		} else {
			m.statusBar.Updates++
		}
		m.refresh()
		return m, m.watcher.ReadLoop(m.ctx)

	case client.DeinitMsg:
		if m.catalog.Remove(msg.Snapshot) {
			m.statusBar.Removed++
			m.debugLog.Addf(debug.KindSource, "deinit %s (%s)", msg.Snapshot.Name, msg.Snapshot.TypeName)
		}
		m.refresh()
		return m, m.watcher.ReadLoop(m.ctx)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancel()
		return m, tea.Quit
	}

	switch m.overlay {
	case OverlayDebug:
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Debug):
			m.overlay = OverlayNone
		case key.Matches(msg, m.keys.Up):
			m.debugLog.ScrollUp(1)
		case key.Matches(msg, m.keys.Down):
			m.debugLog.ScrollDown(1)
		}
		return m, nil
	case OverlayDetail:
		if key.Matches(msg, m.keys.Escape) || key.Matches(msg, m.keys.Enter) {
			m.overlay = OverlayNone
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.dashboard.MoveDown(1)
	case key.Matches(msg, m.keys.Up):
		m.dashboard.MoveUp(1)
	case key.Matches(msg, m.keys.Top):
		m.dashboard.MoveUp(m.catalog.Len())
	case key.Matches(msg, m.keys.Bottom):
		m.dashboard.MoveDown(m.catalog.Len())
	case key.Matches(msg, m.keys.Enter):
		if m.dashboard.Selected() != nil {
			m.overlay = OverlayDetail
		}
	case key.Matches(msg, m.keys.Debug):
		m.overlay = OverlayDebug
	case key.Matches(msg, m.keys.Resync):
		if err := m.watcher.Resync(); err != nil {
			m.debugLog.Addf(debug.KindError, "resync: %v", err)
		} else {
			m.debugLog.Add(debug.KindNav, "resync requested")
		}
	}
	return m, nil
}

func (m *Model) refresh() {
	m.statusBar.Sources = m.catalog.Len()
	m.dashboard.SetSources(m.catalog.List())
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var body string
	switch {
	case !m.connected && m.everConnected:
		body = m.renderDisconnected()
	case m.overlay == OverlayDetail:
		body = detail.New(m.dashboard.Selected()).View()
	case m.overlay == OverlayDebug:
		body = m.debugLog.View(m.width, m.height-4)
	default:
		body = m.dashboard.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusBar.View(),
		body,
		theme.StyleDimmed.Render("  j/k:navigate  enter:detail  r:resync  d:events  q:quit"),
	)
}

func (m Model) renderDisconnected() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorDanger).Render("DISCONNECTED"),
		"",
		theme.StyleDimmed.Render("Reconnecting to " + m.watcher.Addr() + "..."),
	}
	if m.lastErr != nil {
		lines = append(lines, theme.StyleDimmed.Render(m.lastErr.Error()))
	}
	return theme.StyleBorder.
		Padding(1, 4).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}
