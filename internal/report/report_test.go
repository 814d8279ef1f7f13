package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
)

func testDataset() *models.Dataset {
	tbl := &models.Table{
		Header: []string{"Date", "Machine", "Good", "Reject", "Planned Time", "Downtime", "Actual Time", "Ideal Rate", "Reason"},
		Rows: [][]string{
			{"2024-01-01", "M1", "950", "50", "480", "30", "420", "2.5", "Setup"},
			{"2024-01-02", "M1", "900", "100", "480", "60", "420", "2.5", "Breakdown"},
			{"2024-01-02", "M2", "", "", "", "", "", "", ""},
		},
	}
	return oee.Evaluate(tbl, oee.DefaultSettings(), "file:line.csv")
}

func TestBuild(t *testing.T) {
	r := Build(testDataset(), Options{GroupBy: models.GroupByMachine, TopReasons: 10})

	if r.TotalRows != 3 || r.Rows != 3 {
		t.Errorf("rows = %d/%d, want 3/3", r.Rows, r.TotalRows)
	}
	if len(r.Groups) != 2 || r.Groups[0].Key != "M1" {
		t.Fatalf("groups = %+v", r.Groups)
	}
	if r.Groups[1].Metrics.OEE != nil {
		t.Error("M2 OEE should be null")
	}
	if r.Columns["Downtime Reason"] != "Reason" {
		t.Errorf("columns = %v", r.Columns)
	}
	if len(r.Downtime) != 2 || r.Downtime[0].Reason != "Breakdown" {
		t.Errorf("downtime = %+v, want Breakdown first", r.Downtime)
	}
}

func TestBuild_Filter(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	r := Build(testDataset(), Options{Filter: oee.Filter{Machine: "M1", From: day, To: day}})

	if r.Rows != 1 {
		t.Errorf("rows = %d, want 1", r.Rows)
	}
	if r.From != "2024-01-02" || r.To != "2024-01-02" || r.Machine != "M1" {
		t.Errorf("filter echo = %s..%s %s", r.From, r.To, r.Machine)
	}
	if r.Downtime != nil {
		t.Error("downtime section should be omitted when TopReasons is zero")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Build(testDataset(), Options{})); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["group_by"] != "date" {
		t.Errorf("group_by = %v, want date", decoded["group_by"])
	}
	summary := decoded["summary"].(map[string]any)
	if _, ok := summary["oee"].(float64); !ok {
		t.Errorf("summary oee = %v, want a number", summary["oee"])
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	r := Build(testDataset(), Options{GroupBy: models.GroupByDate, TopReasons: 5})
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("WriteText: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"OEE Report", "file:line.csv", "Per Date", "2024-01-01", "Top Downtime Reasons", "Breakdown", "60.0 min"} {
		if !strings.Contains(out, want) {
			t.Errorf("text report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_NoGroups(t *testing.T) {
	var buf bytes.Buffer
	r := Build(testDataset(), Options{GroupBy: models.GroupByShift})
	if err := WriteText(&buf, r); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "(no shift column)") {
		t.Error("missing group column should be reported")
	}
}
