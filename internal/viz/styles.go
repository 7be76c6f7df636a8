package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the dashboard styles derived from a Theme.
type styles struct {
	header   lipgloss.Style
	section  lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	active   lipgloss.Style
	muted    lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	graph    lipgloss.Style
	panel    lipgloss.Style
	barHot   lipgloss.Style
	barWarm  lipgloss.Style
	barCold  lipgloss.Style
	keyHints lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		section:  lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginTop(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(40),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		active:   lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		muted:    lipgloss.NewStyle().Foreground(t.Muted),
		running:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warm),
		graph:    lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Muted).Padding(0, 2),
		barHot:   lipgloss.NewStyle().Foreground(t.Hot),
		barWarm:  lipgloss.NewStyle().Foreground(t.Warm),
		barCold:  lipgloss.NewStyle().Foreground(t.Cold),
		keyHints: lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
	}
}

// ProgressBar renders frac of width as a filled bar, colored by level.
func (st styles) ProgressBar(frac float64, width int) string {
	filled := int(frac * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case frac > 0.8:
		return st.barHot.Render(bar)
	case frac > 0.4:
		return st.barWarm.Render(bar)
	}
	return st.barCold.Render(bar)
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
