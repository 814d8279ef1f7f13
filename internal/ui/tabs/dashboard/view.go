package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/components"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// View renders the dashboard component.
func (m *Model) View() string {
	m.settleRefresh()
	if m.state.IsInitialLoading() {
		return m.renderLoading()
	}

	ds := m.state.GetDataset()
	if ds == nil {
		return m.render(m.renderEmpty())
	}

	rows := m.state.FilteredRows()
	sections := []string{m.renderTitle(ds, len(rows))}

	if len(rows) == 0 {
		sections = append(sections, m.card("Results", styles.HelpStyle.Render("No records match the current filter.")))
		return m.render(lipgloss.JoinVertical(lipgloss.Left, sections...))
	}

	sections = append(sections,
		components.RenderKPIRow(oee.Summarize(rows).Metrics, m.contentWidth()),
		"",
		m.renderTrend(ds, rows),
		m.renderGroups(rows),
		m.renderDowntime(ds, rows),
	)

	return m.render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) render(content string) string {
	m.viewport.SetContent(content)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) contentWidth() int {
	return max(m.width-6, 40)
}

// renderLoading renders the loading state.
func (m *Model) renderLoading() string {
	return components.RenderRefreshCentered(m.refresh, m.width, m.height)
}

func (m *Model) renderEmpty() string {
	lines := []string{
		styles.TitleStyle.Render("OEE Dashboard"),
		"",
		styles.HelpStyle.Render("No production data loaded."),
	}
	if err := m.state.GetLastError(); err != nil {
		lines = append(lines, "", fmt.Sprintf("%s %v", styles.ErrorTextStyle.Render("Error:"), err))
	}
	lines = append(lines, "", styles.InfoTextStyle.Render("  ╰─▶ Set a sheet id in Settings (3) or press r to retry"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderTitle renders the title, data source and active filters.
func (m *Model) renderTitle(ds *models.Dataset, shown int) string {
	title := styles.TitleStyle.Render("OEE Dashboard")

	info := fmt.Sprintf("%s · %d of %d records · loaded %s",
		ds.Source, shown, len(ds.Rows), ds.LoadedAt.Format("2006-01-02 15:04"))
	subtitle := styles.HelpStyle.Render(info)

	f := m.state.GetFilter()
	machine := "all machines"
	if f.Machine != oee.AllMachines {
		machine = f.Machine
	}
	filters := fmt.Sprintf("Machine: %s  Dates: %s  Aggregation: %s",
		lipgloss.NewStyle().Foreground(styles.Primary).Render(machine),
		lipgloss.NewStyle().Foreground(styles.Primary).Render(describeDates(f)),
		lipgloss.NewStyle().Foreground(styles.Primary).Render(m.state.GetAggregation().Label()),
	)

	lines := []string{title, subtitle, filters}
	if status := m.refresh.Status(); status != "" {
		lines = append(lines, status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, "")...)
}

func describeDates(f oee.Filter) string {
	switch {
	case f.From.IsZero() && f.To.IsZero():
		return "all"
	case f.From.Equal(f.To):
		return f.From.Format("2006-01-02")
	case f.From.IsZero():
		return "until " + f.To.Format("2006-01-02")
	case f.To.IsZero():
		return "from " + f.From.Format("2006-01-02")
	default:
		return f.From.Format("2006-01-02") + " → " + f.To.Format("2006-01-02")
	}
}

func (m *Model) card(title, body string) string {
	icon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	header := fmt.Sprintf("%s %s", icon, styles.CardTitleStyle.Render(title))
	return styles.CardStyle.Width(m.contentWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", body),
	)
}

// renderTrend plots every metric per calendar date. Without a date column
// there is nothing to plot against.
func (m *Model) renderTrend(ds *models.Dataset, rows []models.Row) string {
	if !ds.Mapping.Has(models.RoleDate) {
		return m.card("Trend", styles.InfoTextStyle.Render(
			"No date column detected; the trend chart needs a Date or Tanggal column."))
	}

	groups := oee.Aggregate(rows, models.GroupByDate)
	if len(groups) == 0 {
		return m.card("Trend", styles.HelpStyle.Render("No dated records to plot."))
	}

	var series []components.Series
	var present []models.Metric
	for _, metric := range models.AllMetrics {
		if !oee.HasKnown(groups, metric) {
			continue
		}
		series = append(series, components.Series{
			Metric: metric,
			Values: components.MetricSeries(groups, metric),
		})
		present = append(present, metric)
	}

	caption := fmt.Sprintf("%% per day, %s → %s", groups[0].Key, groups[len(groups)-1].Key)
	chart := components.RenderMultiLineChart(series, m.contentWidth()-12, 10, caption)
	legend := components.RenderLegend(components.MetricLegend(present...))

	return m.card("Trend", lipgloss.JoinVertical(lipgloss.Left, chart, "", legend))
}

// renderGroups renders the aggregate table at the selected level.
func (m *Model) renderGroups(rows []models.Row) string {
	by := m.state.GetAggregation()
	groups := oee.Aggregate(rows, by)
	title := "Aggregates " + strings.ToLower(by.Label())

	if len(groups) == 0 {
		return m.card(title, styles.HelpStyle.Render(
			fmt.Sprintf("No %s column detected; press a to change the aggregation level.", by)))
	}

	keyWidth := 12
	for _, g := range groups {
		keyWidth = max(keyWidth, lipgloss.Width(g.Key))
	}
	keyWidth = min(keyWidth, 24)

	cell := func(s string, w int) string {
		return lipgloss.NewStyle().Width(w).Align(lipgloss.Right).Render(s)
	}
	header := styles.TableHeaderStyle.Render(
		lipgloss.NewStyle().Width(keyWidth).Render(strings.TrimPrefix(by.Label(), "Per ")) +
			cell("Rows", 6) + cell("Avail", 10) + cell("Perf", 10) + cell("Quality", 10) + cell("OEE", 10),
	)

	lines := []string{header}
	for _, g := range groups {
		label := ansi.Truncate(g.Key, keyWidth-1, "…")
		line := lipgloss.NewStyle().Width(keyWidth).Render(label) +
			cell(fmt.Sprintf("%d", g.Rows), 6) +
			cell(g.Availability.Percent(), 10) +
			cell(g.Performance.Percent(), 10) +
			cell(g.Quality.Percent(), 10) +
			cell(styles.GetOEEStyle(g.OEE).Render(g.OEE.Percent()), 10) +
			"  " + components.RenderGauge(g.OEE, 12)
		lines = append(lines, line)
	}

	return m.card(title, lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderDowntime renders the top downtime causes.
func (m *Model) renderDowntime(ds *models.Dataset, rows []models.Row) string {
	const title = "Top Downtime Reasons"
	if !ds.Mapping.Has(models.RoleDowntime) || !ds.Mapping.Has(models.RoleDowntimeReason) {
		return m.card(title, styles.HelpStyle.Render("Needs both a downtime column and a downtime reason column."))
	}

	reasons := oee.TopDowntimeReasons(rows, topReasons)
	if len(reasons) == 0 {
		return m.card(title, styles.HelpStyle.Render("No downtime recorded."))
	}

	values := make([]float64, len(reasons))
	labels := make([]string, len(reasons))
	for i, r := range reasons {
		values[i] = r.Minutes
		labels[i] = r.Reason
	}

	chart := components.RenderBarChart(values, labels, m.contentWidth()-6)
	return m.card(title, lipgloss.JoinVertical(lipgloss.Left,
		chart, "", styles.HelpStyle.Render("minutes of downtime")))
}
