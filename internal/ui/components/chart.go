// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// ChartPrimaryColor is used for single-series charts.
var ChartPrimaryColor = lipgloss.Color("#7D56F4")

// SeriesColor returns the asciigraph color matching a metric's legend color.
func SeriesColor(m models.Metric) asciigraph.AnsiColor {
	switch m {
	case models.MetricAvailability:
		return asciigraph.Blue
	case models.MetricPerformance:
		return asciigraph.Orange
	case models.MetricQuality:
		return asciigraph.Green
	default:
		return asciigraph.Magenta
	}
}

// Series is one named line of a multi-line chart. NaN values are gaps.
type Series struct {
	Metric models.Metric
	Values []float64
}

func hasPoint(data []float64) bool {
	for _, v := range data {
		if !math.IsNaN(v) {
			return true
		}
	}
	return false
}

func clampSize(width, height int) (int, int) {
	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}
	return width, height
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if !hasPoint(data) {
		return styles.HelpStyle.Render("No data available")
	}
	width, height = clampSize(width, height)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// RenderMultiLineChart plots several metrics on one chart. Series without a
// single known point are dropped; shorter series are padded with gaps.
func RenderMultiLineChart(series []Series, width, height int, caption string) string {
	var (
		data   [][]float64
		colors []asciigraph.AnsiColor
		maxLen int
	)
	for _, s := range series {
		if !hasPoint(s.Values) {
			continue
		}
		data = append(data, s.Values)
		colors = append(colors, SeriesColor(s.Metric))
		maxLen = max(maxLen, len(s.Values))
	}
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	width, height = clampSize(width, height)

	// Normalize lengths - pad shorter series with gaps
	for i := range data {
		for len(data[i]) < maxLen {
			data[i] = append(data[i], math.NaN())
		}
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
	)
}

// MetricSeries extracts one metric from groups as percentages, with NaN for
// unknown values.
func MetricSeries(groups []models.Group, metric models.Metric) []float64 {
	out := make([]float64, len(groups))
	for i := range groups {
		out[i] = groups[i].Get(metric).Float() * 100
	}
	return out
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	// Find max value for scaling
	maxVal := 0.0
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal == 0 {
		maxVal = 1
	}

	// Find max label length
	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, lipgloss.Width(l))
	}

	barWidth := width - maxLabelLen - 10 // Leave room for label and value
	if barWidth < 10 {
		barWidth = 10
	}

	var lines []string
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		paddedLabel := strings.Repeat(" ", maxLabelLen-lipgloss.Width(label)) + label

		barLen := int((v / maxVal) * float64(barWidth))
		if barLen < 0 {
			barLen = 0
		}

		bar := lipgloss.NewStyle().Foreground(styles.Warning).Render(strings.Repeat("█", barLen))
		valueStr := fmt.Sprintf(" %.1f", v)

		lines = append(lines, paddedLabel+" │"+bar+valueStr)
	}

	return strings.Join(lines, "\n")
}

// sparkChars are the Unicode blocks used for sparklines (low to high).
var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RenderSparkline creates a compact inline sparkline of ratios in [0, 1].
// Values above 1 use the tallest block; NaN renders as a space.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	var result strings.Builder
	for _, v := range sample(values, width) {
		result.WriteRune(sparkRune(v))
	}
	return result.String()
}

// RenderColoredSparkline is RenderSparkline with each block colored by its
// OEE band.
func RenderColoredSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	var result strings.Builder
	for _, v := range sample(values, width) {
		style := styles.GetOEEStyle(models.Known(v))
		result.WriteString(style.Render(string(sparkRune(v))))
	}
	return result.String()
}

// sample picks at most width values, evenly spaced, keeping the last one.
func sample(values []float64, width int) []float64 {
	if len(values) <= width {
		return values
	}
	out := make([]float64, width)
	step := float64(len(values)-1) / float64(width-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

func sparkRune(v float64) rune {
	if math.IsNaN(v) {
		return ' '
	}
	idx := int(v * float64(len(sparkChars)-1))
	idx = max(0, min(idx, len(sparkChars)-1))
	return sparkChars[idx]
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	var parts []string
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// MetricLegend returns legend items for metrics.
func MetricLegend(metrics ...models.Metric) []LegendItem {
	items := make([]LegendItem, len(metrics))
	for i, m := range metrics {
		items[i] = LegendItem{Label: m.String(), Color: styles.MetricColor(m)}
	}
	return items
}
