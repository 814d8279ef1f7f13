package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// RenderKPICard renders a metric as a bordered card with its value in
// percent, or N/A when it could not be computed.
func RenderKPICard(metric models.Metric, v models.Value, width int) string {
	label := lipgloss.NewStyle().
		Foreground(styles.MetricColor(metric)).
		Bold(true).
		Render(metric.String())

	valueStyle := styles.GetOEEStyle(v)
	if metric != models.MetricOEE && v.IsKnown() {
		valueStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary).Bold(true)
	}
	value := valueStyle.Render(v.Percent())

	content := lipgloss.JoinVertical(lipgloss.Center, label, value)
	if width > 0 {
		gauge := NewMetricGauge(max(width-9, 6))
		content = lipgloss.JoinVertical(lipgloss.Center, content, gauge.View(v))
	}

	card := styles.KPICardStyle
	if width > 0 {
		// Border and margin take 3 columns.
		card = card.Width(max(width-3, lipgloss.Width(content)+4))
	}
	return card.Align(lipgloss.Center).Render(content)
}

// RenderKPIRow renders one card per metric side by side, splitting width
// evenly.
func RenderKPIRow(m models.Metrics, width int) string {
	cardWidth := 0
	if width > 0 {
		cardWidth = width / len(models.AllMetrics)
	}

	cards := make([]string, len(models.AllMetrics))
	for i, metric := range models.AllMetrics {
		cards[i] = RenderKPICard(metric, m.Get(metric), cardWidth)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
