// Package settings provides the tab for editing run-time settings: sheet id,
// default ideal rate, per-machine ideal rates and aggregation level.
package settings

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

// Store exposes the current settings. *services.Manager implements it.
type Store interface {
	SheetID() string
	SourceName() string
	Settings() oee.Settings
}

type itemKind int

const (
	itemSheetID itemKind = iota
	itemDefaultRate
	itemAggregation
	itemMachineRate
)

// item is one editable line of the settings list.
type item struct {
	kind    itemKind
	machine string
}

// keyMap defines the key bindings specific to the settings tab.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Edit   key.Binding
	Clear  key.Binding
	Save   key.Binding
	Cancel key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter", "e"),
			key.WithHelp("enter", "edit"),
		),
		Clear: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "clear rate"),
		),
		Save: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// Model represents the settings tab state.
type Model struct {
	state    *app.State
	store    Store
	commands *app.Commands
	input    textinput.Model
	keys     keyMap
	items    []item
	cursor   int
	editing  bool
	errMsg   string
	width    int
	height   int
}

// New creates a new settings model. store may be nil before services start.
func New(state *app.State, store Store, commands *app.Commands) *Model {
	input := textinput.New()
	input.CharLimit = 200
	input.Width = 50

	if commands == nil {
		commands = app.NewCommands(nil)
	}
	m := &Model{
		state:    state,
		store:    store,
		commands: commands,
		input:    input,
		keys:     defaultKeyMap(),
	}
	m.buildItems()
	return m
}

// CapturingInput reports whether a field is being edited, which suspends
// global shortcuts.
func (m *Model) CapturingInput() bool {
	return m.editing
}

// Init initializes the settings tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the settings tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	if m.editing {
		return m, m.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	case app.DatasetChangedMsg, app.SettingsSavedMsg:
		m.buildItems()
	}
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Clear):
		if it := m.selected(); it.kind == itemMachineRate {
			return m.commands.SetMachineRate(it.machine, 0)
		}
	case key.Matches(msg, m.keys.Edit):
		return m.startEditing()
	}
	return nil
}

func (m *Model) selected() item {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return item{kind: itemSheetID}
	}
	return m.items[m.cursor]
}

func (m *Model) startEditing() tea.Cmd {
	it := m.selected()
	if it.kind == itemAggregation {
		return m.commands.SetAggregation(m.state.GetAggregation().Next())
	}

	m.editing = true
	m.errMsg = ""
	m.input.SetValue(m.currentValue(it))
	m.input.Placeholder = placeholder(it.kind)
	m.input.CursorEnd()
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
}

func (m *Model) updateEditing(msg tea.Msg) tea.Cmd {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Cancel):
			m.stopEditing()
			m.errMsg = ""
			return nil
		case key.Matches(msg, m.keys.Save):
			cmd, err := m.submit(m.selected(), m.input.Value())
			if err != nil {
				m.errMsg = err.Error()
				return nil
			}
			m.stopEditing()
			m.errMsg = ""
			return cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// submit validates the edited value and returns the command that stores it.
func (m *Model) submit(it item, value string) (tea.Cmd, error) {
	value = strings.TrimSpace(value)
	switch it.kind {
	case itemSheetID:
		if value == "" {
			return nil, fmt.Errorf("sheet id cannot be empty")
		}
		return m.commands.SetSheetID(value), nil

	case itemDefaultRate, itemMachineRate:
		rate, err := parseRate(value)
		if err != nil {
			return nil, err
		}
		if it.kind == itemDefaultRate {
			return m.commands.SetDefaultIdealRate(rate), nil
		}
		return m.commands.SetMachineRate(it.machine, rate), nil
	}
	return nil, nil
}

// parseRate accepts a non-negative number of units per minute. Empty means
// zero, which disables the rate.
func parseRate(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	rate, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if rate < 0 {
		return 0, fmt.Errorf("rate must not be negative")
	}
	return rate, nil
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'g', -1, 64)
}

func placeholder(k itemKind) string {
	switch k {
	case itemSheetID:
		return "Sheet id or docs.google.com URL"
	default:
		return "units per minute, 0 to disable"
	}
}

// currentValue returns the stored value of an item as editable text.
func (m *Model) currentValue(it item) string {
	if m.store == nil {
		return ""
	}
	switch it.kind {
	case itemSheetID:
		return m.store.SheetID()
	case itemDefaultRate:
		if r := m.store.Settings().DefaultIdealRate; r > 0 {
			return formatRate(r)
		}
	case itemMachineRate:
		if r, ok := m.store.Settings().Override(it.machine); ok {
			return formatRate(r)
		}
	}
	return ""
}

// buildItems lists the fixed settings followed by one rate line per machine
// seen in the data or in the overrides.
func (m *Model) buildItems() {
	items := []item{{kind: itemSheetID}, {kind: itemDefaultRate}, {kind: itemAggregation}}

	machines := m.state.GetDataset().Machines()
	if m.store != nil {
		for name := range m.store.Settings().MachineRates {
			if !slices.Contains(machines, name) {
				machines = append(machines, name)
			}
		}
	}
	slices.Sort(machines)
	for _, name := range machines {
		items = append(items, item{kind: itemMachineRate, machine: name})
	}

	m.items = items
	m.cursor = min(m.cursor, len(items)-1)
}

// SetSize sets the available size for the settings tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = min(max(width-30, 20), 60)
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	if m.editing {
		return []key.Binding{m.keys.Save, m.keys.Cancel}
	}
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Edit, m.keys.Clear}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Edit, m.keys.Clear},
		{m.keys.Save, m.keys.Cancel},
	}
}
