package info

import (
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/app"
	"github.com/j-veylop/oee-dashboard-tui/internal/config"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

func TestNew(t *testing.T) {
	m := New(app.NewState(), &config.Config{})
	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.Init() != nil {
		t.Error("Init should return nil")
	}
	if updated, _ := m.Update(nil); updated == nil {
		t.Error("Update returned nil model")
	}
}

func TestView_Config(t *testing.T) {
	cfg := &config.Config{
		SheetID:              "abc123",
		FetchTimeout:         15 * time.Second,
		OverridesPath:        "/tmp/overrides.yaml",
		DatabasePath:         "/tmp/oee.db",
		AlertThreshold:       0.6,
		NotificationsEnabled: true,
	}
	m := New(app.NewState(), cfg)
	m.SetSize(120, 80)

	view := m.View()
	for _, want := range []string{"Google Sheet abc123", "15s", "/tmp/overrides.yaml", "below 60% OEE", "No data loaded yet", "Version"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestView_NilConfig(t *testing.T) {
	m := New(app.NewState(), nil)
	m.SetSize(80, 40)
	if !strings.Contains(m.View(), "Configuration not loaded") {
		t.Error("nil config should be reported")
	}
}

func TestView_DetectedColumns(t *testing.T) {
	state := app.NewState()
	tbl := &models.Table{
		Header: []string{"Tanggal", "Mesin", "Good"},
		Rows:   [][]string{{"2024-01-01", "M1", "10"}},
	}
	state.SetDataset(oee.Evaluate(tbl, oee.DefaultSettings(), "sheet:abc"), &models.Run{ID: "r", StartedAt: time.Now()})

	m := New(state, &config.Config{})
	m.SetSize(140, 120)

	view := m.View()
	for _, want := range []string{"Tanggal", "Mesin", "not found", "3 columns, 1 records", "Last refresh"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
