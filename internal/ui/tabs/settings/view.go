package settings

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

// View renders the settings tab.
func (m *Model) View() string {
	if !m.editing {
		m.buildItems()
	}

	sections := []string{
		m.renderTitle(),
		m.renderList(),
	}
	if m.editing {
		sections = append(sections, m.renderEditor())
	}
	sections = append(sections, m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Settings")
	source := "no source configured"
	if m.store != nil {
		source = m.store.SourceName()
	}
	subtitle := styles.HelpStyle.Render("Reading from " + source + " · changes are saved to the overrides file")
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) label(it item) string {
	switch it.kind {
	case itemSheetID:
		return "Sheet ID"
	case itemDefaultRate:
		return "Default ideal rate"
	case itemAggregation:
		return "Aggregation"
	default:
		return "Ideal rate · " + it.machine
	}
}

func (m *Model) display(it item) string {
	switch it.kind {
	case itemAggregation:
		return m.state.GetAggregation().Label()
	case itemSheetID:
		if v := m.currentValue(it); v != "" {
			return v
		}
		return styles.HelpStyle.Render("not set")
	case itemDefaultRate:
		if v := m.currentValue(it); v != "" {
			return v + " units/min"
		}
		return styles.HelpStyle.Render("off (sheet column only)")
	default:
		if v := m.currentValue(it); v != "" {
			return styles.SuccessTextStyle.Render(v+" units/min") + styles.HelpStyle.Render(" override")
		}
		return styles.HelpStyle.Render("from sheet")
	}
}

func (m *Model) renderList() string {
	labelWidth := 12
	for _, it := range m.items {
		labelWidth = max(labelWidth, lipgloss.Width(m.label(it)))
	}

	rows := []string{styles.CardTitleStyle.Render("Source & Calculation"), ""}
	for i, it := range m.items {
		if i == 3 {
			rows = append(rows, "", styles.CardTitleStyle.Render("Per-machine ideal rates"), "")
		}

		prefix := "  "
		labelStyle := styles.BlurredStyle
		if i == m.cursor {
			prefix = styles.FocusedStyle.Render("▸ ")
			labelStyle = styles.FocusedStyle
		}
		label := labelStyle.Width(labelWidth + 2).Render(m.label(it))
		rows = append(rows, prefix+label+m.display(it))
	}
	if len(m.items) == 3 {
		rows = append(rows, "", styles.HelpStyle.Render("Machines appear here once data is loaded."))
	}

	return styles.CardStyle.Width(max(m.width-6, 50)).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderEditor() string {
	it := m.selected()
	rows := []string{
		styles.FocusedStyle.Render("> " + m.label(it) + ":"),
		styles.FocusedBorderStyle.Width(m.input.Width + 4).Render(m.input.View()),
	}
	if m.errMsg != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(m.errMsg))
	}
	rows = append(rows, styles.HelpStyle.Render("Enter: save | Esc: cancel"))

	return styles.ModalContentStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderFooter() string {
	shortcuts := []string{
		styles.HelpKeyStyle.Render("Enter") + " edit",
		styles.HelpKeyStyle.Render("x") + " clear machine rate",
		styles.HelpKeyStyle.Render("↑/↓") + " move",
	}
	if m.editing {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Enter") + " save",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
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
