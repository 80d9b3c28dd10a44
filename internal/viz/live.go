package viz

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/forcegraph/internal/dynamo"
	"github.com/san-kum/forcegraph/internal/export"
	"github.com/san-kum/forcegraph/internal/forces"
	"github.com/san-kum/forcegraph/internal/sim"
)

const (
	width           = 80
	height          = 24
	statsWidth      = 44
	historyCapacity = 300

	// layout pixels per braille dot
	dotScale = 4.0
	// grab distance for mouse drags, in dots
	hitRadius = 3
)

// Layout is the simulator as seen by the terminal renderer.
type Layout interface {
	Tick() (sim.TickResult, error)
	Snapshot() sim.TickResult
	Links() []dynamo.Link
	Forces() forces.Config
	Viewport() dynamo.Viewport
	State() sim.State
}

// Interaction receives user input.
type Interaction interface {
	OnConfigChange(cfg forces.Config) error
	OnForceChange(p forces.Params) error
	OnViewportResize(width, height float64) error
	OnDragStart(id string, x, y float64) error
	OnDragMove(id string, x, y float64) error
	OnDragEnd(id string) error
}

type TickMsg time.Time

// Model draws the layout on a braille canvas next to a panel of force
// sliders. It ticks the simulator from the bubbletea loop, so the
// simulator must not run its own clock at the same time.
type Model struct {
	layout   Layout
	ctrl     Interaction
	canvas   *Canvas
	links    []dynamo.Link
	frame    sim.TickResult
	alphas   []float64
	interval time.Duration
	selected int
	dragging string
	theme    int
	status   string
	showHelp bool
	title    string
}

func NewModel(layout Layout, ctrl Interaction, title string, fps int) Model {
	if fps <= 0 {
		fps = sim.DefaultFPS
	}
	return Model{
		layout:   layout,
		ctrl:     ctrl,
		canvas:   NewCanvas(width-statsWidth-6, height-2),
		links:    layout.Links(),
		frame:    layout.Snapshot(),
		alphas:   make([]float64, 0, historyCapacity),
		interval: time.Second / time.Duration(fps),
		title:    title,
	}
}

// WithTheme selects a theme by name. Unknown names keep the current one.
func (m Model) WithTheme(name string) Model {
	for i, t := range Themes {
		if t.Name == name {
			m.theme = i
		}
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		m.step()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "j":
		m.selected = (m.selected + 1) % len(sliders)
	case "shift+tab", "k":
		m.selected = (m.selected + len(sliders) - 1) % len(sliders)
	case "up", "right", "l":
		m.adjust(1)
	case "down", "left", "h":
		m.adjust(-1)
	case " ":
		m.toggle()
	case "r":
		m.report(m.ctrl.OnConfigChange(m.layout.Forces()), "reheated")
	case "t":
		m.theme = (m.theme + 1) % len(Themes)
	case "s":
		m.saveSVG()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) adjust(dir int) {
	s := sliders[m.selected]
	p := s.nudge(m.layout.Forces(), dir)
	m.report(m.ctrl.OnForceChange(p), fmt.Sprintf("%s.%s = %.3g", s.kind, s.label, s.get(m.layout.Forces())))
}

func (m *Model) toggle() {
	k := sliders[m.selected].kind
	p, ok := m.layout.Forces().Toggle(k)
	if !ok {
		m.status = fmt.Sprintf("%s cannot be disabled", k)
		return
	}
	state := "off"
	if m.layout.Forces().With(p).Enabled(k) {
		state = "on"
	}
	m.report(m.ctrl.OnForceChange(p), fmt.Sprintf("%s %s", k, state))
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return
	}
	m.status = ok
}

func (m *Model) step() {
	if m.layout.State() == sim.Running {
		r, err := m.layout.Tick()
		if err != nil {
			m.report(err, "")
			return
		}
		m.frame = r
		if len(m.alphas) == historyCapacity {
			m.alphas = m.alphas[1:]
		}
		m.alphas = append(m.alphas, r.Alpha)
		return
	}
	m.frame = m.layout.Snapshot()
}

// resize fits the canvas into the terminal and gives the simulator a
// viewport of the same shape.
func (m *Model) resize(w, h int) {
	cols := w - statsWidth - 6
	rows := h - 2
	m.canvas.Resize(cols, rows)
	dw, dh := m.canvas.Dots()
	m.report(m.ctrl.OnViewportResize(float64(dw)*dotScale, float64(dh)*dotScale), fmt.Sprintf("viewport %dx%d", dw, dh))
}

// toLayout maps a terminal cell to layout coordinates.
func (m *Model) toLayout(col, row int) (float64, float64, bool) {
	// canvasStyle padding
	col -= 2
	row -= 1
	if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
		return 0, 0, false
	}
	vp := m.layout.Viewport()
	dw, dh := m.canvas.Dots()
	x := (float64(col*2) + 1) / float64(dw) * vp.Width
	y := (float64(row*4) + 2) / float64(dh) * vp.Height
	return x, y, true
}

// toDots maps layout coordinates to canvas sub-pixels.
func (m *Model) toDots(x, y float64) (int, int) {
	vp := m.layout.Viewport()
	dw, dh := m.canvas.Dots()
	if vp.Width <= 0 || vp.Height <= 0 {
		return -1, -1
	}
	return int(math.Floor(x / vp.Width * float64(dw))), int(math.Floor(y / vp.Height * float64(dh)))
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	x, y, inside := m.toLayout(msg.X, msg.Y)

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !inside {
			return
		}
		id, ok := m.hit(x, y)
		if !ok {
			return
		}
		if err := m.ctrl.OnDragStart(id, x, y); err != nil {
			m.report(err, "")
			return
		}
		m.dragging = id
		m.status = "dragging " + id
	case tea.MouseActionMotion:
		if m.dragging == "" || !inside {
			return
		}
		m.report(m.ctrl.OnDragMove(m.dragging, x, y), "dragging "+m.dragging)
	case tea.MouseActionRelease:
		if m.dragging == "" {
			return
		}
		m.report(m.ctrl.OnDragEnd(m.dragging), "released "+m.dragging)
		m.dragging = ""
	}
}

// hit finds the body closest to (x, y) within hitRadius dots.
func (m *Model) hit(x, y float64) (string, bool) {
	px, py := m.toDots(x, y)
	best, bestD := "", math.Inf(1)
	for _, b := range m.frame.Bodies {
		bx, by := m.toDots(b.X, b.Y)
		d := math.Hypot(float64(bx-px), float64(by-py))
		if d <= hitRadius && d < bestD {
			best, bestD = b.ID, d
		}
	}
	return best, best != ""
}

func (m *Model) saveSVG() {
	vp := m.layout.Viewport()
	opts := export.DefaultSVGOptions(int(vp.Width), int(vp.Height))
	opts.Fit = false
	name := fmt.Sprintf("forcegraph_%d.svg", m.frame.Tick)
	svg := export.LayoutSVG(export.NewFrame(m.frame, m.links), opts)
	if err := os.WriteFile(name, []byte(svg), 0644); err != nil {
		m.report(err, "")
		return
	}
	m.status = "saved " + name
}

func (m *Model) draw() {
	theme := Themes[m.theme]
	m.canvas.Clear()

	bodies := m.frame.Bodies
	for _, l := range m.links {
		if l.Source >= len(bodies) || l.Target >= len(bodies) {
			continue
		}
		x0, y0 := m.toDots(bodies[l.Source].X, bodies[l.Source].Y)
		x1, y1 := m.toDots(bodies[l.Target].X, bodies[l.Target].Y)
		m.canvas.DrawLine(x0, y0, x1, y1, 0)
	}
	for _, b := range bodies {
		x, y := m.toDots(b.X, b.Y)
		if b.Pinned() {
			m.canvas.DrawDisc(x, y, 1, theme.PinnedColor())
			continue
		}
		m.canvas.SetColor(x, y, theme.GroupColor(b.Group))
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	theme := Themes[m.theme]
	canvasView := canvasStyle.Render(m.canvas.Render(theme.Styles()))

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(theme.Primary).Render(strings.ToUpper(m.title)) + "\n")
	if m.frame.State == sim.Running {
		s.WriteString(StatusRunning.Render("RUNNING"))
	} else {
		s.WriteString(StatusSettled.Render("SETTLED"))
	}
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Alpha") + ProgressBar(m.frame.Alpha, 20) + valueStyle.Render(fmt.Sprintf(" %.4f", m.frame.Alpha)) + "\n")
	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.frame.Tick)) + "\n")
	s.WriteString(labelStyle.Render("Bodies") + valueStyle.Render(fmt.Sprintf("%d / %d links", len(m.frame.Bodies), len(m.links))) + "\n")

	if len(m.alphas) > 1 {
		chart := asciigraph.Plot(m.alphas, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("alpha"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString("\nFORCES\n")
	cfg := m.layout.Forces()
	for i, sl := range sliders {
		line := fmt.Sprintf("%-8s%-9s%s %7.3g", sl.kind, sl.label, SliderBar(sl.get(cfg), sl.min, sl.max, 8), sl.get(cfg))
		switch {
		case i == m.selected:
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		case !cfg.Enabled(sl.kind):
			s.WriteString("  " + disabledStyle.Render(line) + "\n")
		default:
			s.WriteString("  " + labelStyle.UnsetWidth().Render(line) + "\n")
		}
	}

	if m.status != "" {
		s.WriteString("\n" + m.status + "\n")
	}
	s.WriteString(helpStyle.Render("TAB:Select ↑↓:Tune SP:Toggle\nR:Reheat T:Theme S:SVG ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpStyle.Render("drag a node with the left mouse button; it stays pinned until released.\n"+
			"slider changes and toggles fully reheat the layout; resizing the terminal resizes the layout.") + "\n" + mainView
	}
	return mainView
}

// Run starts the program with mouse support.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
