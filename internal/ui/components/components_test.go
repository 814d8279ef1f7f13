package components

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

func TestRenderLineChart(t *testing.T) {
	s := RenderLineChart([]float64{1, 2, 3, 4}, 20, 5, "Test")
	if !strings.Contains(s, "Test") {
		t.Error("RenderLineChart should include the caption")
	}

	empty := RenderLineChart([]float64{math.NaN(), math.NaN()}, 20, 5, "Test")
	if !strings.Contains(empty, "No data available") {
		t.Errorf("all-NaN chart = %q, want placeholder", empty)
	}
}

func TestRenderMultiLineChart(t *testing.T) {
	series := []Series{
		{Metric: models.MetricOEE, Values: []float64{50, math.NaN(), 70}},
		{Metric: models.MetricQuality, Values: []float64{90, 95}},
		{Metric: models.MetricPerformance, Values: []float64{math.NaN()}},
	}
	s := RenderMultiLineChart(series, 30, 5, "Daily")
	if !strings.Contains(s, "Daily") {
		t.Error("RenderMultiLineChart should include the caption")
	}

	if got := RenderMultiLineChart(nil, 30, 5, "x"); !strings.Contains(got, "No data available") {
		t.Errorf("empty chart = %q, want placeholder", got)
	}
}

func TestMetricSeries(t *testing.T) {
	groups := []models.Group{
		{Metrics: models.Metrics{OEE: models.Known(0.5)}},
		{Metrics: models.Metrics{OEE: models.Unknown()}},
	}
	got := MetricSeries(groups, models.MetricOEE)
	if len(got) != 2 || got[0] != 50 || !math.IsNaN(got[1]) {
		t.Errorf("MetricSeries = %v, want [50 NaN]", got)
	}
}

func TestRenderBarChart(t *testing.T) {
	s := RenderBarChart([]float64{10, 20}, []string{"Setup", "Breakdown"}, 40)
	lines := strings.Split(s, "\n")
	if len(lines) != 2 {
		t.Fatalf("RenderBarChart lines = %d, want 2", len(lines))
	}
	if !strings.Contains(lines[1], "Breakdown") || !strings.Contains(lines[1], "20.0") {
		t.Errorf("second bar = %q", lines[1])
	}
	if RenderBarChart(nil, nil, 40) != "" {
		t.Error("empty bar chart should render nothing")
	}
}

func TestRenderSparkline(t *testing.T) {
	s := RenderSparkline([]float64{0, 0.5, 1, math.NaN()}, 10)
	if []rune(s)[0] != '▁' || []rune(s)[2] != '█' || []rune(s)[3] != ' ' {
		t.Errorf("RenderSparkline = %q", s)
	}

	long := make([]float64, 100)
	if got := len([]rune(RenderSparkline(long, 10))); got != 10 {
		t.Errorf("sampled sparkline width = %d, want 10", got)
	}
}

func TestRenderColoredSparkline(t *testing.T) {
	if RenderColoredSparkline([]float64{0.3, 0.7, 0.9}, 10) == "" {
		t.Error("RenderColoredSparkline returned empty")
	}
	if RenderColoredSparkline(nil, 10) != "" {
		t.Error("empty input should render nothing")
	}
}

func TestRenderLegend(t *testing.T) {
	items := []LegendItem{
		{Label: "A", Color: lipgloss.Color("#ffffff")},
	}
	if !strings.Contains(RenderLegend(items), "A") {
		t.Error("RenderLegend should contain the label")
	}

	legend := RenderLegend(MetricLegend(models.AllMetrics...))
	for _, m := range models.AllMetrics {
		if !strings.Contains(legend, m.String()) {
			t.Errorf("legend missing %s", m)
		}
	}
}

func TestRenderKPIRow(t *testing.T) {
	m := models.Metrics{
		Availability: models.Known(0.9375),
		Performance:  models.Unknown(),
		Quality:      models.Known(0.95),
		OEE:          models.Unknown(),
	}
	row := RenderKPIRow(m, 100)

	for _, want := range []string{"Availability", "93.75%", "N/A", "95.00%", "OEE"} {
		if !strings.Contains(row, want) {
			t.Errorf("KPI row missing %q", want)
		}
	}
}
