package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/config"
	"github.com/san-kum/launchsim/internal/scene"
	"github.com/san-kum/launchsim/internal/sequence"
)

var presetInfo = map[string]string{
	"default":  "scripted ascent at 60 Hz",
	"quick":    "coarse 30 Hz steps, unpaced",
	"heavy":    "50 t vehicle, damped, verlet",
	"realtime": "wall clock pacing",
}

// Menu picks a preset and then hands over to the live view.
type Menu struct {
	presets []string
	cursor  int
	loader  scene.ModelLoader
	log     zerolog.Logger
	err     error

	live    *Model
	started bool
}

func NewMenu(loader scene.ModelLoader, log zerolog.Logger) *Menu {
	return &Menu{presets: config.ListPresets(), loader: loader, log: log}
}

func (m *Menu) Init() tea.Cmd { return nil }

func (m *Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.started {
		next, cmd := m.live.Update(msg)
		live := next.(Model)
		m.live = &live
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m, m.start()
	}
	return m, nil
}

func (m *Menu) start() tea.Cmd {
	cfg := config.GetPreset(m.presets[m.cursor])
	l, err := sequence.Build(cfg, m.loader, m.log)
	if err != nil {
		m.err = err
		return nil
	}
	live := NewModel(l, m.log)
	m.live, m.started, m.err = &live, true, nil
	return live.Init()
}

// Selected is the preset under the cursor.
func (m *Menu) Selected() string { return m.presets[m.cursor] }

func (m *Menu) Started() bool { return m.started }

func (m *Menu) View() string {
	if m.started {
		return m.live.View()
	}
	t := Themes[0]
	title := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(t.Muted)
	sel := lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.Accent)
	key := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + title.Render("LAUNCHSIM") + "\n    " + sub.Render("staged launch controller") + "\n    " + sub.Render(strings.Repeat("─", 25)) + "\n\n")
	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", key.Render("▸"), sel.Render(fmt.Sprintf("%-10s", name)), desc.Render(presetInfo[name])))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-10s", name)), sub.Render(presetInfo[name])))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(t.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" launch  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// RunMenu shows the preset picker full screen.
func RunMenu(loader scene.ModelLoader, log zerolog.Logger) error {
	_, err := tea.NewProgram(NewMenu(loader, log), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
