package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/rs/zerolog"

	"github.com/san-kum/launchsim/internal/dynamo"
	"github.com/san-kum/launchsim/internal/sequence"
	"github.com/san-kum/launchsim/internal/sim"
)

const (
	defaultWidth    = 60
	defaultHeight   = 22
	minWidth        = 20
	minHeight       = 8
	panelWidth      = 46
	historyCapacity = 600

	// Wheel notch in scroll units; with the default zoom speed one notch
	// moves the camera a tenth of the way to the anchor.
	wheelNotch = 100
	orbitStep  = 0.1
)

// Canvas origin inside the rendered view, in terminal cells.
const (
	canvasLeft = 2
	canvasTop  = 1
)

type TickMsg time.Time

// Model is the live launch view.
type Model struct {
	launch   *sequence.Launch
	renderer *Renderer
	canvas   *Canvas
	theme    Theme
	styles   Styles
	log      zerolog.Logger
	interval time.Duration

	paused   bool
	showHelp bool
	velocity []float64
	altitude []float64
	lastErr  error
}

func NewModel(l *sequence.Launch, log zerolog.Logger) Model {
	interval := l.Config.Sim().Interval()
	if interval == 0 {
		interval = time.Second / 60
	}
	m := Model{
		launch:   l,
		renderer: NewRenderer(),
		theme:    Themes[0],
		styles:   NewStyles(Themes[0]),
		log:      log,
		interval: interval,
		velocity: make([]float64, 0, historyCapacity),
		altitude: make([]float64, 0, historyCapacity),
	}
	m.resize(defaultWidth, defaultHeight)
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) resize(w, h int) {
	m.canvas = NewCanvas(max(w, minWidth), max(h, minHeight))
	m.launch.SetAspect(float64(m.canvas.PixelWidth()) / float64(m.canvas.PixelHeight()))
}

// Update handles input and advances the launch on every tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width-panelWidth-2*canvasLeft, msg.Height-2*canvasTop)
	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.togglePause()
	case "left", "h":
		m.orbit(-orbitStep, 0)
	case "right", "l":
		m.orbit(orbitStep, 0)
	case "up", "k":
		m.orbit(0, -orbitStep)
	case "down", "j":
		m.orbit(0, orbitStep)
	case "+", "=":
		m.zoom(float64(m.canvas.PixelWidth())/2, float64(m.canvas.PixelHeight())/2, wheelNotch)
	case "-", "_":
		m.zoom(float64(m.canvas.PixelWidth())/2, float64(m.canvas.PixelHeight())/2, -wheelNotch)
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.styles = NewStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// handleMouse zooms toward the dot under the cursor on wheel events.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	var delta float64
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		delta = wheelNotch
	case tea.MouseButtonWheelDown:
		delta = -wheelNotch
	default:
		return
	}
	cx, cy := msg.X-canvasLeft, msg.Y-canvasTop
	if cx < 0 || cy < 0 || cx >= m.canvas.Width || cy >= m.canvas.Height {
		return
	}
	m.zoom((float64(cx)+0.5)*2, (float64(cy)+0.5)*4, delta)
}

func (m *Model) zoom(px, py, delta float64) {
	a, err := m.launch.Zoom.OnWheel(px, py, delta, m.canvas.PixelWidth(), m.canvas.PixelHeight())
	if err != nil {
		m.log.Debug().Err(err).Msg("zoom ignored")
		return
	}
	m.log.Trace().
		Float64("factor", a.Factor).
		Float64("distance", m.launch.Orbit.Distance()).
		Msg("zoom")
}

// togglePause stops a self-advancing clock along with the ticks so the
// timeline resumes where it left off.
func (m *Model) togglePause() {
	m.paused = !m.paused
	pc, ok := m.launch.Clock.(sim.Pausable)
	if !ok {
		return
	}
	if m.paused {
		pc.Pause()
	} else {
		pc.Resume()
	}
}

func (m *Model) orbit(dTheta, dPhi float64) {
	m.launch.Orbit.Rotate(dTheta, dPhi)
	m.launch.Orbit.Update()
}

// step runs one controller tick. Once the launch is frozen only the view
// keeps refreshing.
func (m *Model) step() {
	ctrl := m.launch.Controller
	if ctrl.Frozen() {
		return
	}
	f, err := ctrl.Tick(m.launch.Clock.Elapsed())
	if err != nil && !errors.Is(err, dynamo.ErrFrozen) {
		m.lastErr = err
		m.log.Error().Err(err).Int("tick", f.Tick).Msg("tick failed")
	}
	m.velocity = appendCapped(m.velocity, f.Velocity.Y)
	m.altitude = appendCapped(m.altitude, f.Altitude())
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m Model) status() string {
	switch {
	case m.launch.Controller.Frozen():
		return "FROZEN"
	case m.paused:
		return "PAUSED"
	}
	return "RUNNING"
}

// View renders the scene next to the telemetry panel.
func (m Model) View() string {
	m.canvas.Clear()
	m.renderer.Render(m.canvas, m.launch.Scene.Graph, m.launch.View())
	canvasView := m.styles.Canvas.Render(m.canvas.String())

	st := m.styles
	f := m.launch.Controller.Last()
	prof := m.launch.Config.Profile()

	var s strings.Builder
	s.WriteString(st.Header.Render("LAUNCHSIM "+strings.ToUpper(m.launch.Config.Preset)) + "\n")
	s.WriteString(st.Value.Render(m.status()) + "  " + st.Stage(f.Stage) + "\n\n")

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("T+", fmt.Sprintf("%.2fs", f.Elapsed))
	row("Target", fmt.Sprintf("%.1f m/s", f.TargetVelocityY))
	row("Velocity", fmt.Sprintf("%.1f m/s", f.Velocity.Y))
	row("Altitude", fmt.Sprintf("%.1f m", f.Altitude()))
	row("Camera", fmt.Sprintf("%s  d=%.1f", m.launch.Controller.Rig(), m.launch.Orbit.Distance()))
	row("Ticks", fmt.Sprintf("%d", m.launch.Controller.Ticks()))
	if prof.FreezeAt > 0 {
		row("Freeze", ProgressBar(f.Elapsed/prof.FreezeAt, 20))
	}
	if !m.launch.Scene.HasRocket() {
		row("Model", "unavailable")
	}
	if m.lastErr != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(m.theme.Error).Render(m.lastErr.Error()) + "\n")
	}

	if len(m.velocity) > 1 {
		chart := asciigraph.Plot(m.velocity, asciigraph.Height(6), asciigraph.Width(30), asciigraph.Caption("velocity y"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}
	s.WriteString(st.Label.Render("altitude") + Sparkline(m.altitude, 24) + "\n")
	s.WriteString(st.Help.Render("SP:Pause Q:Quit T:Theme ?:Help\nhjkl:Orbit +/-:Zoom wheel:Zoom"))

	screen := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + screen
	}
	return screen
}

const helpText = `
  Space     pause or resume
  h j k l   orbit the camera
  + -       zoom toward the view center
  wheel     zoom toward the cursor
  t         cycle themes
  q         quit
`

// Run starts the live view full screen with mouse reporting enabled.
func Run(l *sequence.Launch, log zerolog.Logger) error {
	_, err := tea.NewProgram(NewModel(l, log), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
