package viz

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/solarsim/internal/field"
	"github.com/san-kum/solarsim/internal/sim"
	"github.com/san-kum/solarsim/internal/solar"
)

func newTestModel() (Model, *sim.Scheduler) {
	sched := sim.New(solar.NewState(), 0.5, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewModel(sched, "test", 1), sched
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func selectControl(t *testing.T, m Model, name string) Model {
	t.Helper()
	for i, c := range m.controls {
		if c == name {
			m.selected = i
			return m
		}
	}
	t.Fatalf("%s is not a control", name)
	return m
}

func TestControlsAreWritableFields(t *testing.T) {
	m, sched := newTestModel()
	controls, readouts := solar.Partition(sched.Fields())
	if len(m.controls) != len(controls) {
		t.Fatalf("got %d controls, want %d", len(m.controls), len(controls))
	}
	kinds := map[string]field.Kind{}
	for _, f := range sched.Fields() {
		kinds[f.Name] = f.Kind
	}
	for _, c := range m.controls {
		if kinds[c] != field.Mutable {
			t.Errorf("%s listed as control", c)
		}
	}
	if len(readouts) == 0 {
		t.Error("no readouts")
	}
}

func TestSelectionWraps(t *testing.T) {
	m, _ := newTestModel()
	m = send(m, key("shift+tab"))
	if m.selected != len(m.controls)-1 {
		t.Errorf("selected = %d after shift+tab", m.selected)
	}
	m = send(m, key("tab"))
	if m.selected != 0 {
		t.Errorf("selected = %d after wrap", m.selected)
	}
}

func TestAdjustClamps(t *testing.T) {
	m, sched := newTestModel()
	m = selectControl(t, m, "panel_area")

	m = send(m, key("L"))
	f, _ := sched.Get("panel_area")
	if diff := f.Value - 2.2; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("panel_area = %v, want 2.2", f.Value)
	}

	for i := 0; i < 20; i++ {
		m = send(m, key("L"))
	}
	f, _ = sched.Get("panel_area")
	if f.Value != 3 {
		t.Errorf("panel_area = %v, want clamp at 3", f.Value)
	}
	if !strings.Contains(m.status, "panel_area") {
		t.Errorf("status = %q", m.status)
	}
}

func TestTickAdvancesOnlyWhileRunning(t *testing.T) {
	m, sched := newTestModel()
	m.speed = 100

	m = send(m, TickMsg{})
	if sched.Last().Time <= 0 {
		t.Fatal("simulation did not advance")
	}
	if len(m.history) < 2 {
		t.Errorf("history len = %d", len(m.history))
	}

	m = send(m, key(" "))
	if m.running {
		t.Fatal("space did not pause")
	}
	before := sched.Last().Time
	m = send(m, TickMsg{})
	if sched.Last().Time != before {
		t.Error("advanced while paused")
	}

	m = send(m, key("n"))
	if got := sched.Last().Time; got != before+0.5 {
		t.Errorf("single step time = %v, want %v", got, before+0.5)
	}
}

func TestSpeedBounds(t *testing.T) {
	m, _ := newTestModel()
	for i := 0; i < 20; i++ {
		m = send(m, key("]"))
	}
	if m.speed != maxSpeed {
		t.Errorf("speed = %v, want %v", m.speed, maxSpeed)
	}
	for i := 0; i < 40; i++ {
		m = send(m, key("["))
	}
	if m.speed != minSpeed {
		t.Errorf("speed = %v, want %v", m.speed, minSpeed)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel()
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestViewShowsReadouts(t *testing.T) {
	m, _ := newTestModel()
	m.speed = 50
	m = send(m, TickMsg{}, TickMsg{})
	view := m.View()
	for _, want := range []string{"SOLARSIM", "Tank average temp", " K", "Solar gain", "CONTROLS", "Panel area"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != "solar" {
		t.Error("unknown theme should fall back to solar")
	}
	if nextTheme("minimal").Name != Themes[0].Name {
		t.Error("theme cycle should wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names mismatch")
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil, 4); got != "────" {
		t.Errorf("empty sparkline = %q", got)
	}
	got := []rune(Sparkline([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8}, 8))
	if len(got) != 8 || got[0] != '▁' || got[7] != '█' {
		t.Errorf("sparkline = %q", string(got))
	}
}
