package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rigid2d/internal/geom"
	"github.com/san-kum/rigid2d/internal/world"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

const historyLen = 120

// Builder produces a fresh world for the watched scene; it is called
// again on reset.
type Builder func() (*world.World, error)

type Model struct {
	name    string
	build   Builder
	world   *world.World
	err     error
	paused  bool
	speed   int
	history []float64
	view    geom.AABB

	lastFrame time.Time
	fps       float64

	width  int
	height int
}

func NewModel(name string, build Builder) (*Model, error) {
	m := &Model{name: name, build: build, speed: 1, width: 80, height: 24}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) reset() error {
	w, err := m.build()
	if err != nil {
		return err
	}
	m.world = w
	m.history = m.history[:0]
	m.err = nil
	m.view = fitView(w)
	return nil
}

// fitView frames the initial body positions with some margin. The view
// stays fixed afterwards so motion is visible.
func fitView(w *world.World) geom.AABB {
	snap := w.Snapshot()
	if len(snap.Bodies) == 0 {
		return geom.AABB{Min: geom.V(-1, -1), Max: geom.V(1, 1)}
	}
	pts := make([]geom.Vec2, len(snap.Bodies))
	for i, b := range snap.Bodies {
		pts[i] = geom.V(b.X, b.Y)
	}
	box := geom.AABBFromPoints(pts...)
	size := box.Max.Sub(box.Min)
	pad := math.Max(math.Max(size[0], size[1])*0.25, 1)
	return box.Loosened(pad)
}

func (m *Model) World() *world.World { return m.world }

func (m *Model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused && m.err == nil {
			now := time.Time(msg)
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.speed; i++ {
		m.world.Step()
	}
	if !m.world.State().IsValid() {
		m.err = fmt.Errorf("simulation diverged at t=%.2fs", m.world.Time())
		return
	}
	m.history = append(m.history, m.world.KineticEnergy())
	if len(m.history) > historyLen {
		m.history = m.history[1:]
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "+", "=":
		if m.speed < 32 {
			m.speed *= 2
		}
	case "-":
		if m.speed > 1 {
			m.speed /= 2
		}
	case "n":
		if m.paused {
			m.world.Step()
		}
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
		}
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m *Model) View() string {
	cw := m.width - 6
	ch := m.height - 10
	if cw < 40 {
		cw = 40
	}
	if ch < 10 {
		ch = 10
	}

	canvas := m.draw(cw, ch)

	var b strings.Builder

	statusIcon, statusText := green.Render("●"), green.Render("running")
	switch {
	case m.err != nil:
		statusIcon, statusText = red.Render("✕"), red.Render(m.err.Error())
	case m.paused:
		statusIcon, statusText = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.name), statusText,
		dim.Render(fmt.Sprintf("t=%.2fs  x%d  %.0ffps", m.world.Time(), m.speed, m.fps))))
	b.WriteString(dimmer.Render("   "+strings.Repeat("─", cw)) + "\n")

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	b.WriteString(dimmer.Render("   "+strings.Repeat("─", cw)) + "\n")
	b.WriteString(fmt.Sprintf("   %s%s  %s%s  %s%s  %s%s\n",
		dim.Render("bodies="), white.Render(fmt.Sprint(m.world.BodyCount())),
		dim.Render("contacts="), white.Render(fmt.Sprint(m.world.ContactCount())),
		dim.Render("depth="), white.Render(fmt.Sprintf("%.4f", m.world.MaxPenetration())),
		dim.Render("joint err="), white.Render(fmt.Sprintf("%.4f", m.world.JointError()))))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("KE"), cyan.Render(sparkline(m.history, 40))))
	}

	b.WriteString("\n" + dim.Render("   space pause  n step  ±speed  r reset  q quit") + "\n")
	return b.String()
}

func (m *Model) draw(w, h int) [][]rune {
	canvas := make([][]rune, h)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", w))
	}

	size := m.view.Max.Sub(m.view.Min)
	project := func(p geom.Vec2) (int, int, bool) {
		x := int((p[0] - m.view.Min[0]) / size[0] * float64(w-1))
		y := h - 1 - int((p[1]-m.view.Min[1])/size[1]*float64(h-1))
		return x, y, x >= 0 && x < w && y >= 0 && y < h
	}

	snap := m.world.Snapshot()
	maxV := 0.0
	for _, b := range snap.Bodies {
		maxV = math.Max(maxV, math.Hypot(b.VX, b.VY))
	}
	for _, b := range snap.Bodies {
		if x, y, ok := project(geom.V(b.X, b.Y)); ok {
			canvas[y][x] = speedChar(math.Hypot(b.VX, b.VY), maxV)
		}
	}
	for _, c := range m.world.Contacts() {
		for _, p := range c.Points {
			if x, y, ok := project(p.Point); ok && p.Depth >= 0 {
				canvas[y][x] = '*'
			}
		}
	}
	return canvas
}

func speedChar(v, maxV float64) rune {
	if maxV == 0 {
		return '·'
	}
	ratio := v / maxV
	switch {
	case ratio < 0.25:
		return '·'
	case ratio < 0.5:
		return '∘'
	case ratio < 0.75:
		return '○'
	}
	return '●'
}

func sparkline(data []float64, width int) string {
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal, maxVal = math.Min(minVal, v), math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[max(0, min(idx, 7))])
	}
	return sb.String()
}

// Run shows the scene in the terminal until the user quits.
func Run(name string, build Builder) error {
	m, err := NewModel(name, build)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
