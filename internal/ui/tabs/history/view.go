package history

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// maxRunRows is how many recent runs the run list shows.
const maxRunRows = 10

// View renders the history tab.
func (m *Model) View() string {
	if m.loading && m.historyData == nil {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if !m.historyData.HasData() {
		return m.renderEmpty()
	}

	sections := []string{
		m.renderHeader(),
		m.renderSummary(),
		m.renderDailyChart(),
		m.renderRuns(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		styles.HelpStyle.Render("No history recorded in this range yet."),
		styles.HelpStyle.Render("Every refresh stores a KPI snapshot here."),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderHeader() string {
	title := styles.TitleStyle.Render("History")

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	rangeIndicator := rangeStyle.Render(fmt.Sprintf("[t] %s", m.timeRange.String()))
	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeIndicator)

	var subtitle string
	if hs := m.historyData; hs != nil && len(hs.Daily) > 0 {
		first, last := hs.Daily[0].Date, hs.Daily[len(hs.Daily)-1].Date
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d days, %d runs)",
			first.Format("Jan 2, 2006"), last.Format("Jan 2, 2006"), len(hs.Daily), len(hs.Runs)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func cardHeader(icon, title string) string {
	i := lipgloss.NewStyle().Foreground(styles.Primary).Render(icon)
	return fmt.Sprintf("%s %s", i, styles.CardTitleStyle.Render(title))
}

func (m *Model) renderSummary() string {
	hs := m.historyData
	rows := []string{cardHeader("◈", "Summary"), ""}

	line := func(label, value string) string {
		return "  " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Width(16).Render(label) + value
	}

	rows = append(rows, line("Mean daily OEE", styles.GetOEEStyle(hs.MeanOEE).Render(hs.MeanOEE.Percent())))
	if hs.BestOEE.IsKnown() {
		rows = append(rows,
			line("Best day", fmt.Sprintf("%s  %s", styles.GetOEEStyle(hs.BestOEE).Render(hs.BestOEE.Percent()), hs.BestDay.Format("Mon Jan 2"))),
			line("Worst day", fmt.Sprintf("%s  %s", styles.GetOEEStyle(hs.WorstOEE).Render(hs.WorstOEE.Percent()), hs.WorstDay.Format("Mon Jan 2"))),
		)
	}
	if hs.Comparison != "" {
		rows = append(rows, line("Latest day", hs.Comparison))
	}

	failed := styles.SuccessTextStyle.Render("0")
	if hs.FailedRuns > 0 {
		failed = styles.ErrorTextStyle.Render(fmt.Sprintf("%d", hs.FailedRuns))
	}
	rows = append(rows, line("Runs", fmt.Sprintf("%d (%s failed)", len(hs.Runs), failed)), "")

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// dailySeries extracts one metric from the stored daily aggregates as
// percentages, NaN where unknown.
func dailySeries(daily []models.DailyMetric, metric models.Metric) []float64 {
	out := make([]float64, len(daily))
	for i := range daily {
		if f, ok := daily[i].Metrics.Get(metric).Get(); ok {
			out[i] = f * 100
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func (m *Model) renderDailyChart() string {
	daily := m.historyData.Daily
	rows := []string{cardHeader("◆", "Daily OEE"), ""}

	if len(daily) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No daily data available"))
	} else {
		var series []components.Series
		var present []models.Metric
		for _, metric := range models.AllMetrics {
			values := dailySeries(daily, metric)
			if !slices.ContainsFunc(values, func(v float64) bool { return !math.IsNaN(v) }) {
				continue
			}
			series = append(series, components.Series{Metric: metric, Values: values})
			present = append(present, metric)
		}

		chartWidth := max(m.cardWidth()-12, 30)
		chart := components.RenderMultiLineChart(series, chartWidth, 8,
			fmt.Sprintf("%d days stored", len(daily)))
		for line := range strings.SplitSeq(chart, "\n") {
			rows = append(rows, "  "+line)
		}

		ratios := make([]float64, len(daily))
		for i := range daily {
			ratios[i] = daily[i].OEE.Or(math.NaN())
		}
		rows = append(rows,
			"",
			"  "+components.RenderLegend(components.MetricLegend(present...)),
			"  OEE "+components.RenderColoredSparkline(ratios, chartWidth),
		)
	}

	rows = append(rows, "")
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderRuns() string {
	runs := m.historyData.Runs
	rows := []string{cardHeader("◇", "Recent Runs"), ""}

	if len(runs) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No runs in this range"))
	}

	sourceWidth := max(m.cardWidth()-95, 12)
	header := fmt.Sprintf("  %-17s %-*s %7s %8s %8s  %s", "Time", sourceWidth, "Source", "Records", "OEE", "Took", "Status")
	if len(runs) > 0 {
		rows = append(rows, styles.TableHeaderStyle.Render(header))
	}

	// Runs are stored oldest first; show the newest on top.
	for i := len(runs) - 1; i >= 0 && len(runs)-i <= maxRunRows; i-- {
		r := runs[i]
		status := styles.SuccessTextStyle.Render("ok")
		if r.Failed() {
			status = styles.ErrorTextStyle.Render(ansi.Truncate(r.Error, 30, "…"))
		}
		oee := styles.GetOEEStyle(r.Summary.OEE).Render(fmt.Sprintf("%8s", r.Summary.OEE.Percent()))
		rows = append(rows, fmt.Sprintf("  %-17s %-*s %7d %s %8s  %s",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			sourceWidth, ansi.Truncate(r.Source, sourceWidth, "…"),
			r.RecordCount,
			oee,
			r.Duration.Round(time.Millisecond).String(),
			status,
		))
	}

	rows = append(rows, "")
	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
