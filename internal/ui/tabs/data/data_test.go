package data

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

func loadedState() *app.State {
	tbl := &models.Table{
		Header: []string{"Date", "Machine", "Good", "Reject", "Planned Time", "Downtime", "Actual Time", "Ideal Rate"},
		Rows: [][]string{
			{"2024-01-01", "M1", "950", "50", "480", "30", "420", "2.5"},
			{"2024-01-01", "M2", "400", "100", "480", "120", "360", "2"},
			{"2024-01-02", "M3", "", "", "", "", "", ""},
		},
	}
	state := app.NewState()
	state.SetLoading("initial", false)
	state.SetDataset(oee.Evaluate(tbl, oee.DefaultSettings(), "file:x.csv"), &models.Run{ID: "r"})
	return state
}

func TestView_Empty(t *testing.T) {
	state := app.NewState()
	m := New(state)
	m.SetSize(140, 30)

	if !strings.Contains(m.View(), "No records loaded yet") {
		t.Error("empty view should say nothing is loaded")
	}
}

func TestView_Rows(t *testing.T) {
	m := New(loadedState())
	m.SetSize(160, 30)

	view := m.View()
	if !strings.Contains(view, "3 of 3 records") {
		t.Error("title should count records")
	}
	if !strings.Contains(view, "M2") {
		t.Error("table should list machines")
	}
	if m.table.Rows()[2][13] != "N/A" {
		t.Errorf("OEE of an empty row = %q, want N/A", m.table.Rows()[2][13])
	}
}

func TestSync_FollowsFilter(t *testing.T) {
	state := loadedState()
	m := New(state)
	m.SetSize(160, 30)
	m.View()

	state.SetFilter(oee.Filter{Machine: "M1"})
	m.Update(nil)

	if len(m.table.Rows()) != 1 {
		t.Fatalf("rows = %d, want 1", len(m.table.Rows()))
	}
	if !strings.Contains(m.View(), "machine M1") {
		t.Error("title should show the machine filter")
	}
}

func TestUpdate_SortCycle(t *testing.T) {
	m := New(loadedState())
	m.SetSize(160, 30)
	sortKey := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")}

	m.Update(sortKey)
	if m.order != sortWorstOEE {
		t.Fatalf("order = %v, want worst first", m.order)
	}
	rows := m.table.Rows()
	if rows[0][2] != "M2" || rows[2][2] != "M3" {
		t.Errorf("worst-first order = %s,%s,%s", rows[0][2], rows[1][2], rows[2][2])
	}

	m.Update(sortKey)
	if rows = m.table.Rows(); rows[0][2] != "M1" || rows[2][2] != "M3" {
		t.Errorf("best-first order = %s,%s,%s", rows[0][2], rows[1][2], rows[2][2])
	}

	m.Update(sortKey)
	if m.order != sortSheet {
		t.Error("third press should restore sheet order")
	}
}

func TestCompareOEE(t *testing.T) {
	tests := []struct {
		name string
		a, b models.Value
		desc bool
		want int
	}{
		{"asc", models.Known(0.2), models.Known(0.5), false, -1},
		{"desc", models.Known(0.2), models.Known(0.5), true, 1},
		{"unknown last", models.Unknown(), models.Known(0.5), false, 1},
		{"unknown last desc", models.Known(0.5), models.Unknown(), true, -1},
		{"both unknown", models.Unknown(), models.Unknown(), false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareOEE(tt.a, tt.b, tt.desc); got != tt.want {
				t.Errorf("compareOEE = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	if got := columns(0)[2].Width; got != 10 {
		t.Errorf("narrow machine width = %d, want 10", got)
	}
	if got := columns(500)[2].Width; got != 24 {
		t.Errorf("wide machine width = %d, want 24", got)
	}
}
