package info

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
	"github.com/j-veylop/oee-dashboard-tui/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	sections := []string{
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderColumnsCard(),
		m.renderAboutCard(),
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

// renderTitle renders the info tab title.
func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, detected columns and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 100)
}

// renderConfigCard renders the effective configuration.
func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	cfg := m.config
	if cfg == nil {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	} else {
		source := "Google Sheet " + cfg.SheetID
		if cfg.UsesFile() {
			source = "File " + cfg.SourceFile
		}
		refresh := "manual"
		if cfg.RefreshInterval > 0 {
			refresh = "every " + cfg.RefreshInterval.String()
		}
		notifications := "off"
		if cfg.NotificationsEnabled {
			notifications = fmt.Sprintf("below %.0f%% OEE", cfg.AlertThreshold*100)
		}

		rows = append(rows,
			m.renderConfigRow("Source", source),
			m.renderConfigRow("Fetch Timeout", cfg.FetchTimeout.String()),
			m.renderConfigRow("Auto Refresh", refresh),
			m.renderConfigRow("Overrides File", cfg.OverridesPath),
			m.renderConfigRow("Database", cfg.DatabasePath),
			m.renderConfigRow("Log File", cfg.LogPath),
			m.renderConfigRow("Availability", "fallback "+cfg.AvailabilityFallback.String()),
			m.renderConfigRow("Performance", "fallback "+cfg.PerformanceFallback.String()),
			m.renderConfigRow("Derive Actual", fmt.Sprintf("%t", cfg.DeriveActualTime)),
			m.renderConfigRow("Alerts", notifications),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderColumnsCard shows which sheet column was resolved for each role.
func (m *Model) renderColumnsCard() string {
	rows := []string{styles.CardTitleStyle.Render("Detected Columns"), ""}

	ds := m.state.GetDataset()
	if ds == nil {
		rows = append(rows, styles.HelpStyle.Render("No data loaded yet"))
	} else {
		for _, role := range models.Roles() {
			value := styles.SuccessTextStyle.Render(ds.Mapping.Name(role))
			if !ds.Mapping.Has(role) {
				value = styles.HelpStyle.Render("not found · looked for " + strings.Join(oee.Candidates[role], ", "))
			}
			rows = append(rows, m.renderConfigRow(role.String(), value))
		}
		rows = append(rows, "", styles.HelpStyle.Render(
			fmt.Sprintf("%d columns, %d records from %s", len(ds.Header), len(ds.Rows), ds.Source)))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}

// renderConfigRow renders a configuration key-value row.
func (m *Model) renderConfigRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

// renderAboutCard renders the about/version information card.
func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About OEE Dashboard TUI"),
		"",
		m.renderConfigRow("Version", version.GetVersion()),
		m.renderConfigRow("Build Date", version.GetDate()),
		m.renderConfigRow("Git Commit", version.GetCommit()),
		m.renderConfigRow("Go Version", runtime.Version()),
		m.renderConfigRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
	}

	if run := m.state.GetLastRun(); run != nil {
		rows = append(rows, "", fmt.Sprintf("Last refresh: %s",
			styles.InfoTextStyle.Render(run.StartedAt.Local().Format("2006-01-02 15:04:05"))))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)
}
