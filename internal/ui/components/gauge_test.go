package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/oee-dashboard-tui/internal/models"
)

func TestRenderGauge(t *testing.T) {
	tests := []struct {
		name   string
		v      models.Value
		filled int
	}{
		{"half", models.Known(0.5), 5},
		{"over one clamps", models.Known(1.4), 10},
		{"negative clamps", models.Known(-0.2), 0},
		{"unknown", models.Unknown(), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := RenderGauge(tt.v, 10)
			if got := lipgloss.Width(bar); got != 10 {
				t.Errorf("width = %d, want 10", got)
			}
			if got := strings.Count(bar, "█"); got != tt.filled {
				t.Errorf("filled = %d, want %d", got, tt.filled)
			}
		})
	}

	if RenderGauge(models.Known(1), 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestMetricGauge(t *testing.T) {
	g := NewMetricGauge(12)
	if got := lipgloss.Width(g.View(models.Known(0.75))); got != 12 {
		t.Errorf("gauge width = %d, want 12", got)
	}

	g.SetWidth(6)
	unknown := g.View(models.Unknown())
	if strings.Count(unknown, "░") != 6 {
		t.Errorf("unknown gauge = %q, want empty track", unknown)
	}
}

func TestInterpolateColor(t *testing.T) {
	if got := interpolateColor("#000000", "#ffffff", 0); got != "#000000" {
		t.Errorf("t=0 got %s", got)
	}
	if got := interpolateColor("#000000", "#ffffff", 1); got != "#ffffff" {
		t.Errorf("t=1 got %s", got)
	}
	if got := hexToRGB("zz"); got != [3]int{0, 0, 0} {
		t.Errorf("bad hex = %v, want zeros", got)
	}
}
