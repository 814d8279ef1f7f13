package data

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/oee"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// View renders the data tab.
func (m *Model) View() string {
	m.sync()

	sections := []string{m.renderTitle()}
	if m.state.GetDataset() == nil || m.rows == 0 {
		sections = append(sections, m.renderEmptyState())
	} else {
		sections = append(sections, m.renderTable())
	}
	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Records")

	total := 0
	if ds := m.state.GetDataset(); ds != nil {
		total = len(ds.Rows)
	}
	info := fmt.Sprintf("%d of %d records · %s", m.rows, total, m.order)
	if f := m.state.GetFilter(); f.Machine != oee.AllMachines {
		info += " · machine " + f.Machine
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(info), "")
}

func (m *Model) renderTable() string {
	return styles.CardStyle.Width(max(m.width-6, 60)).Render(m.table.View())
}

func (m *Model) renderEmptyState() string {
	msg := "No records loaded yet."
	if m.state.GetDataset() != nil {
		msg = "No records match the current filter."
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.SubTitleStyle.Render("Nothing to show"),
		"",
		styles.HelpStyle.Render(msg),
		"",
	)
	return styles.CardStyle.Width(max(m.width-6, 40)).Render(content)
}

func (m *Model) renderFooter() string {
	shortcuts := []string{
		styles.HelpKeyStyle.Render("↑/↓") + " move",
		styles.HelpKeyStyle.Render("o") + " sort",
		styles.HelpKeyStyle.Render("m/d") + " filter on dashboard",
	}

	footer := ""
	for i, s := range shortcuts {
		if i > 0 {
			footer += styles.HelpSeparatorStyle.Render(" | ")
		}
		footer += s
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(footer)
}
