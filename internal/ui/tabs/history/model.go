// Package history provides the history tab for viewing stored refresh runs
// and daily KPI trends.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

// loadTimeout bounds a single history query.
const loadTimeout = 5 * time.Second

// Loader reads stored history. *services.Manager implements it.
type Loader interface {
	History(ctx context.Context, tr models.TimeRange) (*models.HistoryStats, error)
}

// keyMap defines the key bindings specific to the history tab.
type keyMap struct {
	ToggleRange key.Binding
	Reload      key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the history tab.
func defaultKeyMap() keyMap {
	return keyMap{
		ToggleRange: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle time range"),
		),
		Reload: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "reload history"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// historyLoadedMsg is sent when history data is loaded.
type historyLoadedMsg struct {
	stats *models.HistoryStats
	runID string
}

// historyErrorMsg is sent when there's an error loading history.
type historyErrorMsg struct {
	err   string
	runID string
}

// Model represents the history tab state.
type Model struct {
	state    *app.State
	loader   Loader
	width    int
	height   int
	keys     keyMap
	viewport viewport.Model

	timeRange   models.TimeRange
	historyData *models.HistoryStats
	loadedRunID string
	loading     bool
	loaded      bool
	errorMsg    string
}

// New creates a new history model.
func New(state *app.State, loader Loader) *Model {
	return &Model{
		state:     state,
		loader:    loader,
		keys:      defaultKeyMap(),
		viewport:  viewport.New(0, 0),
		timeRange: models.TimeRange30Days,
	}
}

// Init initializes the history tab.
func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) currentRunID() string {
	if run := m.state.GetLastRun(); run != nil {
		return run.ID
	}
	return ""
}

func (m *Model) reload() tea.Cmd {
	m.loading = true
	return m.loadHistoryCmd(m.timeRange, m.currentRunID())
}

// loadHistoryCmd creates a command to load history data.
func (m *Model) loadHistoryCmd(tr models.TimeRange, runID string) tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		if loader == nil {
			return historyErrorMsg{err: "Services not initialized", runID: runID}
		}

		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		stats, err := loader.History(ctx, tr)
		if err != nil {
			return historyErrorMsg{err: err.Error(), runID: runID}
		}
		return historyLoadedMsg{stats: stats, runID: runID}
	}
}

// Update handles messages for the history tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case historyLoadedMsg:
		m.historyData = msg.stats
		m.loadedRunID = msg.runID
		m.loading = false
		m.loaded = true
		m.errorMsg = ""
		return m, nil

	case historyErrorMsg:
		m.loadedRunID = msg.runID
		m.loading = false
		m.loaded = true
		m.errorMsg = msg.err
		return m, func() tea.Msg {
			return app.AddNotificationMsg{
				Type:     app.NotificationError,
				Message:  fmt.Sprintf("History error: %s", msg.err),
				Duration: app.LongNotificationDuration,
			}
		}

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyMsg(msg))
	}

	// A refresh recorded a new run since the last load.
	if !m.loading && m.loaded && m.currentRunID() != m.loadedRunID {
		cmds = append(cmds, m.reload())
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.ToggleRange):
		m.timeRange = m.timeRange.Next()
		return m.reload()

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

// SetSize sets the available size for the history tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.ToggleRange,
		m.keys.Reload,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.ToggleRange, m.keys.Reload},
		{m.keys.Up, m.keys.Down},
	}
}
