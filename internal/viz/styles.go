package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/launchsim/internal/launch"
)

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Canvas lipgloss.Style
	Panel  lipgloss.Style
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Graph  lipgloss.Style
	Help   lipgloss.Style

	theme Theme
}

func NewStyles(t Theme) Styles {
	return Styles{
		Canvas: lipgloss.NewStyle().Padding(1, 2),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(42),
		Header: lipgloss.NewStyle().Foreground(t.Primary).Bold(true).MarginBottom(1),
		Label:  lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		Value:  lipgloss.NewStyle().Foreground(t.Text),
		Graph:  lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		Help:   lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		theme:  t,
	}
}

// Stage colors a stage name by how far the launch has progressed.
func (s Styles) Stage(st launch.Stage) string {
	c := s.theme.Muted
	switch st {
	case launch.Igniting:
		c = s.theme.Warning
	case launch.Ascending:
		c = s.theme.Success
	case launch.Vibrating:
		c = s.theme.Error
	case launch.Frozen:
		c = s.theme.Primary
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(strings.ToUpper(st.String()))
}

// ProgressBar renders fraction in [0,1] as a bar of width cells.
func ProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

var sparkRunes = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders the last width values, scaled between their min and max.
func Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}
	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / span * float64(len(sparkRunes)-1))
		b.WriteRune(sparkRunes[max(0, min(idx, len(sparkRunes)-1))])
	}
	return b.String()
}
