package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/solarsim/internal/solar"
)

const (
	frameRate        = time.Second / 30
	historyCapacity  = 600
	maxStepsPerFrame = 2000
	minSpeed         = 0.125
	maxSpeed         = 4096
)

type TickMsg time.Time

// Engine is the simulation the dashboard drives. *sim.Scheduler satisfies it.
type Engine interface {
	Tick() (solar.Sample, bool)
	Last() solar.Sample
	Fields() []solar.Snapshot
	Set(name string, v float32) (solar.Change, error)
	Dt() float64
}

// Model is the live dashboard: writable fields on one side, simulation
// readouts and the tank temperature history on the other.
type Model struct {
	eng   Engine
	title string
	theme Theme
	st    styles

	controls []string
	selected int

	running bool
	speed   float64
	acc     float64

	last     solar.Sample
	history  []float64
	status   string
	showHelp bool
}

// NewModel builds a dashboard over eng. speed is simulated seconds per wall
// second.
func NewModel(eng Engine, title string, speed float64) Model {
	if speed <= 0 {
		speed = 1
	}
	controls, _ := solar.Partition(eng.Fields())
	names := make([]string, len(controls))
	for i, c := range controls {
		names[i] = c.Name
	}
	last := eng.Last()
	return Model{
		eng:      eng,
		title:    title,
		theme:    ThemeSolar,
		st:       newStyles(ThemeSolar),
		controls: names,
		running:  true,
		speed:    speed,
		last:     last,
		history:  []float64{float64(last.TankTemp)},
	}
}

// WithTheme selects the color scheme by name.
func (m Model) WithTheme(name string) Model {
	m.theme = GetTheme(name)
	m.st = newStyles(m.theme)
	return m
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			m.acc = 0
		case "n":
			if !m.running {
				m.step()
			}
		case "tab", "down", "j":
			m.cycle(1)
		case "shift+tab", "up", "k":
			m.cycle(-1)
		case "right", "l":
			m.adjust(1, 100)
		case "left", "h":
			m.adjust(-1, 100)
		case "L":
			m.adjust(1, 10)
		case "H":
			m.adjust(-1, 10)
		case "]":
			m.speed = min(m.speed*2, maxSpeed)
		case "[":
			m.speed = max(m.speed/2, minSpeed)
		case "t":
			m.theme = nextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(frameRate)
		} else {
			m.last = m.eng.Last()
		}
		return m, tick()
	}
	return m, nil
}

// advance runs as many fixed ticks as the elapsed wall time allows at the
// current speed.
func (m *Model) advance(elapsed time.Duration) {
	dt := m.eng.Dt()
	if dt <= 0 {
		return
	}
	m.acc += m.speed * elapsed.Seconds()
	steps := 0
	for m.acc >= dt && steps < maxStepsPerFrame {
		if !m.step() {
			break
		}
		m.acc -= dt
		steps++
	}
	if steps == maxStepsPerFrame {
		m.acc = 0
	}
}

func (m *Model) step() bool {
	sample, ok := m.eng.Tick()
	if !ok {
		return false
	}
	m.last = sample
	m.history = append(m.history, float64(sample.TankTemp))
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
	return true
}

func (m *Model) cycle(dir int) {
	if len(m.controls) == 0 {
		return
	}
	m.selected = (m.selected + dir + len(m.controls)) % len(m.controls)
}

// adjust nudges the selected field by 1/divisions of its range. The write
// goes through the same clamped path as remote writes.
func (m *Model) adjust(dir, divisions int) {
	if len(m.controls) == 0 {
		return
	}
	name := m.controls[m.selected]
	var cur solar.Snapshot
	for _, f := range m.eng.Fields() {
		if f.Name == name {
			cur = f
			break
		}
	}
	step := (cur.Max - cur.Min) / float32(divisions)
	change, err := m.eng.Set(name, cur.Value+float32(dir)*step)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s: %.3f -> %.3f", change.Name, change.Old, change.New)
}

func (m Model) View() string {
	st := m.st
	var left, right strings.Builder

	state := st.running.Render("RUNNING")
	if !m.running {
		state = st.paused.Render("PAUSED")
	}
	header := st.header.Render(fmt.Sprintf("SOLARSIM  %s", strings.ToUpper(m.title)))
	meta := fmt.Sprintf("%s  t=%s  dt=%.2fs  speed=%gx",
		state, formatDuration(m.last.Time), m.eng.Dt(), m.speed)

	right.WriteString(st.section.Render("TANK") + "\n")
	right.WriteString(readout(st, "Tank average temp", temp(m.last.TankTemp)))
	right.WriteString(readout(st, "Water temp in", temp(m.last.WaterTempIn)))
	right.WriteString(readout(st, "Ambient temp", temp(m.last.AmbientTemp)))
	right.WriteString(readout(st, "Water mass", fmt.Sprintf("%.1f / %.1f kg", m.last.TankMass, m.last.TankCapacity)))

	right.WriteString(st.section.Render("HEAT FLOW") + "\n")
	right.WriteString(readout(st, "Solar gain", fmt.Sprintf("%.1f W", m.last.Solar)))
	right.WriteString(readout(st, "Panel loss", fmt.Sprintf("%.1f W", m.last.PanelLoss)))
	right.WriteString(readout(st, "Pipe loss", fmt.Sprintf("%.1f W", m.last.PipeLoss)))
	right.WriteString(readout(st, "Tank loss", fmt.Sprintf("%.1f W", m.last.TankLoss)))
	right.WriteString(readout(st, "Net", fmt.Sprintf("%.1f W", m.last.Net)))

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(8),
			asciigraph.Width(50),
			asciigraph.Precision(2),
			asciigraph.Caption("Tank temperature (°C)"))
		right.WriteString(st.graph.Render(chart) + "\n")
	}
	right.WriteString(st.muted.Render(Sparkline(m.history, 50)) + "\n")

	left.WriteString(st.section.Render("CONTROLS") + "\n")
	fields := m.eng.Fields()
	byName := make(map[string]solar.Snapshot, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	for i, name := range m.controls {
		f := byName[name]
		frac := 0.0
		if f.Max > f.Min {
			frac = float64((f.Value - f.Min) / (f.Max - f.Min))
		}
		line := fmt.Sprintf("%-38s %s %9.3f", solar.Label(name), st.ProgressBar(frac, 12), f.Value)
		if i == m.selected {
			left.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			left.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	if len(m.controls) > 0 {
		f := byName[m.controls[m.selected]]
		left.WriteString(st.muted.Render(fmt.Sprintf("  range [%g, %g]", f.Min, f.Max)) + "\n")
	}
	if m.status != "" {
		left.WriteString("\n" + st.value.Render(m.status) + "\n")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		st.panel.Render(left.String()),
		st.panel.Render(right.String()))

	out := header + "\n" + meta + "\n" + body + "\n" +
		st.keyHints.Render("space pause  n step  tab/↑↓ select  ←→ adjust  HL coarse  [ ] speed  t theme  ? help  q quit")
	if m.showHelp {
		out = helpText + "\n" + out
	}
	return out
}

const helpText = `
  space      pause or resume
  n          single step while paused
  tab / ↓    next control
  shift+tab  previous control
  ← →        adjust by 1% of range
  H L        adjust by 10% of range
  [ ]        halve or double speed
  t          cycle theme
  q          quit
`

func readout(st styles, label, value string) string {
	return st.label.Render(label) + st.value.Render(value) + "\n"
}

// temp formats a temperature in °C with its Kelvin equivalent.
func temp(c float32) string {
	return fmt.Sprintf("%6.2f °C  %7.2f K", c, solar.Kelvin(float64(c)))
}

func formatDuration(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second)).Round(time.Second)
	return d.String()
}
