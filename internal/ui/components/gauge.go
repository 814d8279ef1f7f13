package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/logger"
	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

const (
	gaugeLow  = "#ff6b6b"
	gaugeHigh = "#51cf66"
)

// MetricGauge renders a ratio metric as a gradient progress bar.
type MetricGauge struct {
	progress progress.Model
}

// NewMetricGauge creates a gauge of the given width.
func NewMetricGauge(width int) MetricGauge {
	return MetricGauge{
		progress: progress.New(
			progress.WithScaledGradient(gaugeLow, gaugeHigh),
			progress.WithWidth(max(width, 1)),
			progress.WithoutPercentage(),
		),
	}
}

// SetWidth changes the bar width.
func (g *MetricGauge) SetWidth(width int) {
	g.progress.Width = max(width, 1)
}

// View renders v clamped to [0, 1]. Unknown values render an empty track.
func (g MetricGauge) View(v models.Value) string {
	f, ok := v.Get()
	if !ok {
		return lipgloss.NewStyle().
			Foreground(styles.Subtle).
			Render(strings.Repeat("░", g.progress.Width))
	}
	return g.progress.ViewAs(clampRatio(f))
}

func clampRatio(f float64) float64 {
	return min(max(f, 0), 1)
}

// RenderGauge renders v as a gradient bar of width cells without the
// progress model, for use inside table cells.
func RenderGauge(v models.Value, width int) string {
	if width < 1 {
		return ""
	}

	f, ok := v.Get()
	filled := 0
	if ok {
		filled = int(float64(width) * clampRatio(f))
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			color := interpolateColor(gaugeLow, gaugeHigh, t)
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
