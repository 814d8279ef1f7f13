package oee

import (
	"testing"
	"time"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

func build(t *testing.T, header []string, rows [][]string, s Settings) []models.Record {
	t.Helper()
	tbl := &models.Table{Header: header, Rows: rows}
	return BuildRecords(tbl, ResolveAll(header), s)
}

func TestBuildRecords_Fields(t *testing.T) {
	recs := build(t,
		[]string{"Tanggal", "Shift", "Mesin", "Good", "Afkir", "Jam Kerja Target", "Jam Kerja Aktual", "Downtime", "Speed", "Downtime Reason"},
		[][]string{{"2024-02-01", "1", " M1 ", "950", "50", "450", "420", "30", "2", "Setup"}},
		DefaultSettings(),
	)
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if !r.HasDate || !r.Date.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, %v", r.Date, r.HasDate)
	}
	if r.Machine != "M1" || r.Shift != "1" || r.DowntimeReason != "Setup" {
		t.Errorf("text fields = %q %q %q", r.Machine, r.Shift, r.DowntimeReason)
	}
	assertValue(t, "total", r.Total, 1000, true)
	assertValue(t, "planned", r.PlannedTime, 450, true)
	assertValue(t, "actual", r.ActualTime, 420, true)
	assertValue(t, "downtime", r.Downtime, 30, true)
	assertValue(t, "rate", r.IdealRate, 2, true)
	if len(r.Raw) != 10 {
		t.Errorf("raw cells = %d", len(r.Raw))
	}
}

func TestBuildRecords_Total(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		row    []string
		want   float64
		known  bool
	}{
		{"GoodPlusReject", []string{"Good", "Reject"}, []string{"90", "10"}, 100, true},
		{"MissingRejectCountsZero", []string{"Good", "Reject"}, []string{"90", ""}, 90, true},
		{"MissingGoodCountsZero", []string{"Good", "Reject"}, []string{"", "10"}, 10, true},
		{"BothMissing", []string{"Good", "Reject"}, []string{"", "x"}, 0, false},
		{"BothBlank", []string{"Good", "Reject"}, []string{"", ""}, 0, false},
		{"BothBlankIgnoresTotalColumn", []string{"Good", "Reject", "Total"}, []string{" ", "", "50"}, 0, false},
		{"TotalColumn", []string{"Good", "Total"}, []string{"90", "120"}, 120, true},
		{"GoodOnly", []string{"Good"}, []string{"90"}, 90, true},
		{"NothingResolved", []string{"Foo"}, []string{"1"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := build(t, tt.header, [][]string{tt.row}, DefaultSettings())
			assertValue(t, "total", recs[0].Total, tt.want, tt.known)
		})
	}
}

func TestBuildRecords_BlankCountsQuality(t *testing.T) {
	recs := build(t,
		[]string{"Good", "Reject"},
		[][]string{{"90", ""}, {"", "10"}, {"", ""}},
		DefaultSettings(),
	)

	assertValue(t, "reject blank", Quality(&recs[0]), 1, true)
	assertValue(t, "good blank", Quality(&recs[1]), 0, false)
	assertValue(t, "both blank", Quality(&recs[2]), 0, false)
}

func TestSumKnown(t *testing.T) {
	assertValue(t, "both", sumKnown(models.Known(2), models.Known(3)), 5, true)
	assertValue(t, "left only", sumKnown(models.Known(2), models.Unknown()), 2, true)
	assertValue(t, "right only", sumKnown(models.Unknown(), models.Known(3)), 3, true)
	assertValue(t, "neither", sumKnown(models.Unknown(), models.Unknown()), 0, false)
}

func TestBuildRecords_IdealRateSources(t *testing.T) {
	s := DefaultSettings()
	s.DefaultIdealRate = 3

	withColumn := build(t, []string{"Speed"}, [][]string{{""}, {"5"}}, s)
	assertValue(t, "blank cell keeps unknown", withColumn[0].IdealRate, 0, false)
	assertValue(t, "column value", withColumn[1].IdealRate, 5, true)

	noColumn := build(t, []string{"Good"}, [][]string{{"1"}}, s)
	assertValue(t, "default", noColumn[0].IdealRate, 3, true)

	s.DefaultIdealRate = 0
	disabled := build(t, []string{"Good"}, [][]string{{"1"}}, s)
	assertValue(t, "zero default", disabled[0].IdealRate, 0, false)
}

func TestBuildRecords_DeriveActualTime(t *testing.T) {
	header := []string{"Planned Time", "Downtime"}
	rows := [][]string{{"480", "30"}}

	off := build(t, header, rows, DefaultSettings())
	assertValue(t, "actual without derive", off[0].ActualTime, 0, false)

	s := DefaultSettings()
	s.DeriveActualTime = true
	on := build(t, header, rows, s)
	assertValue(t, "derived actual", on[0].ActualTime, 450, true)

	withColumn := build(t, []string{"Planned Time", "Downtime", "Actual"}, [][]string{{"480", "30", ""}}, s)
	assertValue(t, "actual column present is not derived", withColumn[0].ActualTime, 0, false)
}

func TestBuildRecords_ShortRowsAndBadValues(t *testing.T) {
	recs := build(t,
		[]string{"Date", "Machine", "Good"},
		[][]string{{"not a date"}, {}},
		DefaultSettings(),
	)
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].HasDate {
		t.Error("unparseable date should be absent")
	}
	if recs[1].Machine != "" || recs[1].Good.IsKnown() {
		t.Error("short row should yield empty fields")
	}
}

func TestBuildRecords_NilTable(t *testing.T) {
	if got := BuildRecords(nil, models.NewColumnMapping(), DefaultSettings()); got != nil {
		t.Errorf("BuildRecords(nil) = %v", got)
	}
}
