// Package data provides the record table tab.
package data

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// sortOrder is the row order of the table.
type sortOrder int

const (
	sortSheet sortOrder = iota
	sortWorstOEE
	sortBestOEE
)

func (s sortOrder) String() string {
	switch s {
	case sortWorstOEE:
		return "worst OEE first"
	case sortBestOEE:
		return "best OEE first"
	default:
		return "sheet order"
	}
}

// keyMap defines the key bindings specific to the data tab.
type keyMap struct {
	Sort   key.Binding
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort by OEE"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first row"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last row"),
		),
	}
}

// Model represents the data tab state.
type Model struct {
	state   *app.State
	table   table.Model
	keys    keyMap
	order   sortOrder
	version uint64
	synced  bool
	width   int
	height  int
	rows    int
}

// New creates a new data tab model.
func New(state *app.State) *Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Subtle).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Primary)
	s.Selected = s.Selected.
		Foreground(styles.TextPrimary).
		Background(styles.BgAccent).
		Bold(true)
	t.SetStyles(s)

	return &Model{
		state: state,
		table: t,
		keys:  defaultKeyMap(),
	}
}

// columns sizes the table for width. The machine column absorbs spare
// space.
func columns(width int) []table.Column {
	machineWidth := min(max(width-118, 10), 24)
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Shift", Width: 6},
		{Title: "Machine", Width: machineWidth},
		{Title: "Good", Width: 7},
		{Title: "Reject", Width: 7},
		{Title: "Total", Width: 7},
		{Title: "Planned", Width: 8},
		{Title: "Actual", Width: 8},
		{Title: "Down", Width: 7},
		{Title: "Rate", Width: 6},
		{Title: "Avail", Width: 8},
		{Title: "Perf", Width: 8},
		{Title: "Quality", Width: 8},
		{Title: "OEE", Width: 8},
	}
}

// Init initializes the data tab.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the data tab.
func (m *Model) Update(msg tea.Msg) (app.Tab, tea.Cmd) {
	m.sync()

	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Sort) {
			m.order = (m.order + 1) % 3
			m.updateTableData()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}
	return m, nil
}

// sync rebuilds the rows when the dataset, filter or aggregation changed.
func (m *Model) sync() {
	if v := m.state.Version(); !m.synced || v != m.version {
		m.version = v
		m.synced = true
		m.updateTableData()
	}
}

// updateTableData fills the table from the filtered rows.
func (m *Model) updateTableData() {
	rows := m.state.FilteredRows()
	if m.order != sortSheet {
		rows = slices.Clone(rows)
		slices.SortStableFunc(rows, func(a, b models.Row) int {
			return compareOEE(a.OEE, b.OEE, m.order == sortBestOEE)
		})
	}

	out := make([]table.Row, len(rows))
	for i := range rows {
		out[i] = tableRow(&rows[i])
	}
	m.rows = len(out)
	m.table.SetRows(out)
	if m.table.Cursor() >= len(out) {
		m.table.SetCursor(max(len(out)-1, 0))
	}
}

// compareOEE orders known values before unknown ones in either direction.
func compareOEE(a, b models.Value, desc bool) int {
	af, aok := a.Get()
	bf, bok := b.Get()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	case desc:
		return cmp.Compare(bf, af)
	default:
		return cmp.Compare(af, bf)
	}
}

func tableRow(r *models.Row) table.Row {
	return table.Row{
		r.DateKey(),
		r.Shift,
		r.Machine,
		r.Good.String(),
		r.Reject.String(),
		r.Total.String(),
		r.PlannedTime.String(),
		r.ActualTime.String(),
		r.Downtime.String(),
		r.IdealRate.String(),
		r.Availability.Percent(),
		r.Performance.Percent(),
		r.Quality.Percent(),
		r.OEE.Percent(),
	}
}

// SetSize sets the available size for the data tab.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(height-8, 3))
	m.table.SetColumns(columns(width))
}

// ShortHelp returns the key bindings for the short help view.
func (m *Model) ShortHelp() []key.Binding {
	return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Sort}
}

// FullHelp returns the key bindings for the full help view.
func (m *Model) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{m.keys.Up, m.keys.Down},
		{m.keys.Top, m.keys.Bottom},
		{m.keys.Sort},
	}
}
