// Package dashboard provides the KPI and trend tab of the OEE Dashboard TUI.
package dashboard

import (
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/services"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/components"
)

// topReasons is how many downtime causes the bar chart shows.
const topReasons = 10

// datePreset is a quick date-range filter relative to the newest record.
type datePreset int

const (
	presetAll datePreset = iota
	presetLast7
	presetLast30
	presetLatest
)

func (p datePreset) String() string {
	switch p {
	case presetLast7:
		return "Last 7 days"
	case presetLast30:
		return "Last 30 days"
	case presetLatest:
		return "Latest day"
	default:
		return "All dates"
	}
}

func (p datePreset) next() datePreset {
	return (p + 1) % 4
}

// keyMap defines the key bindings specific to the dashboard tab.
type keyMap struct {
	Aggregation key.Binding
	Machine     key.Binding
	Dates       key.Binding
	ClearFilter key.Binding
	Up          key.Binding
	Down        key.Binding
}

// defaultKeyMap returns the default key bindings for the dashboard tab.
func defaultKeyMap() keyMap {
	return keyMap{
		Aggregation: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "aggregation"),
		),
		Machine: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "machine filter"),
		),
		Dates: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "date range"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear filters"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "scroll down"),
		),
	}
}

// Model represents the dashboard tab state.
type Model struct {
	state    *app.State
	commands *app.Commands
	refresh  components.RefreshIndicator
	keys     keyMap
	viewport viewport.Model
	preset   datePreset
	width    int
	height   int
}

// New creates a new dashboard model. mgr may be nil in tests.
func New(state *app.State, mgr *services.Manager) *Model {
	return &Model{
		state:    state,
		commands: app.NewCommands(mgr),
		refresh:  components.NewRefreshIndicator(),
		keys:     defaultKeyMap(),
		viewport: viewport.New(0, 0),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.refresh.Init()
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.refresh, cmd = m.refresh.Update(msg)
		return m, cmd

	case app.ServiceEventMsg:
		m.refresh, _ = m.refresh.Update(msg.Event)

	case app.FilterChangedMsg:
		if msg.Filter.From.IsZero() && msg.Filter.To.IsZero() {
			m.preset = presetAll
		}
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Aggregation):
		return m.commands.SetAggregation(m.state.GetAggregation().Next())

	case key.Matches(msg, m.keys.Machine):
		return m.cycleMachine()

	case key.Matches(msg, m.keys.Dates):
		return m.cycleDates()

	case key.Matches(msg, m.keys.ClearFilter):
		m.preset = presetAll
		return filterCmd(oee.Filter{})

	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}
}

func filterCmd(f oee.Filter) tea.Cmd {
	return func() tea.Msg { return app.FilterChangedMsg{Filter: f} }
}

// cycleMachine steps the machine filter through all machines and back to
// none.
func (m *Model) cycleMachine() tea.Cmd {
	machines := m.state.GetDataset().Machines()
	if len(machines) == 0 {
		return nil
	}

	f := m.state.GetFilter()
	options := append([]string{oee.AllMachines}, machines...)
	idx := slices.Index(options, f.Machine)
	f.Machine = options[(idx+1)%len(options)]
	return filterCmd(f)
}

// cycleDates steps through the date presets. Ranges are anchored on the
// newest record date, not on today.
func (m *Model) cycleDates() tea.Cmd {
	_, latest, ok := m.state.GetDataset().DateBounds()
	if !ok {
		return nil
	}

	m.preset = m.preset.next()
	f := m.state.GetFilter()
	f.From, f.To = presetRange(m.preset, latest)
	return filterCmd(f)
}

func presetRange(p datePreset, latest time.Time) (from, to time.Time) {
	switch p {
	case presetLast7:
		return latest.AddDate(0, 0, -6), latest
	case presetLast30:
		return latest.AddDate(0, 0, -29), latest
	case presetLatest:
		return latest, latest
	default:
		return time.Time{}, time.Time{}
	}
}

// settleRefresh ends a fetch whose completion arrived while another tab was
// active.
func (m *Model) settleRefresh() {
	loading := m.state.GetLoadingResources()
	if m.refresh.Active() && !slices.Contains(loading, "dataset") && !slices.Contains(loading, "initial") {
		m.refresh = m.refresh.Settle(m.state.GetLastError())
	}
}

// SetSize sets the available size for the dashboard.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{
		m.keys.Aggregation,
		m.keys.Machine,
		m.keys.Dates,
	}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Aggregation, m.keys.Machine},
		{m.keys.Dates, m.keys.ClearFilter},
		{m.keys.Up, m.keys.Down},
	}
}
