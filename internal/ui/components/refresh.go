package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/services"
	"github.com/j-veylop/oee-dashboard-tui/internal/ui/styles"
)

const idleLabel = "Loading production data..."

// RefreshIndicator follows the manager's refresh lifecycle: a spinner naming
// the source while a fetch runs, the error when the last fetch failed.
type RefreshIndicator struct {
	spinner spinner.Model
	source  string
	active  bool
	err     error
}

// NewRefreshIndicator creates an idle indicator.
func NewRefreshIndicator() RefreshIndicator {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Primary)
	return RefreshIndicator{spinner: s}
}

// Init starts the spinner.
func (r RefreshIndicator) Init() tea.Cmd {
	return r.spinner.Tick
}

// Update advances the spinner and tracks refresh events.
func (r RefreshIndicator) Update(msg tea.Msg) (RefreshIndicator, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spinner, cmd = r.spinner.Update(msg)
		return r, cmd

	case services.RefreshStartedEvent:
		r.source = msg.Source
		r.active = true
		r.err = nil

	case services.DatasetLoadedEvent:
		// Recomputes carry no run and do not end a fetch.
		if msg.Run != nil {
			r.active = false
			r.err = nil
		}

	case services.ErrorEvent:
		if msg.Service == "source" {
			r.active = false
			r.err = msg.Error
		}
	}
	return r, nil
}

// Settle ends the current fetch with err, nil for success.
func (r RefreshIndicator) Settle(err error) RefreshIndicator {
	r.active = false
	r.err = err
	return r
}

// Active reports whether a fetch is in progress.
func (r RefreshIndicator) Active() bool {
	return r.active
}

// Err returns the error of the last failed fetch, nil otherwise.
func (r RefreshIndicator) Err() error {
	return r.err
}

// Label describes the current refresh state.
func (r RefreshIndicator) Label() string {
	switch {
	case r.err != nil:
		return fmt.Sprintf("Refresh failed: %v", r.err)
	case r.active && r.source != "":
		return fmt.Sprintf("Fetching %s...", r.source)
	default:
		return idleLabel
	}
}

// View renders the spinner and label, or the failure without a spinner.
func (r RefreshIndicator) View() string {
	if r.err != nil {
		return styles.ErrorTextStyle.Render("✗ " + r.Label())
	}
	return r.spinner.View() + " " + lipgloss.NewStyle().Foreground(styles.TextSecondary).Render(r.Label())
}

// Status renders a one-line status for a screen that already shows data.
// It is empty while idle.
func (r RefreshIndicator) Status() string {
	if !r.active && r.err == nil {
		return ""
	}
	return r.View()
}

// RenderRefreshCentered renders the indicator centered in width by height.
func RenderRefreshCentered(r RefreshIndicator, width, height int) string {
	return styles.CenterBoth(r.View(), width, height)
}
