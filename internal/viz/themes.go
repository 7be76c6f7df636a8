package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the dashboard color scheme.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Hot     lipgloss.Color
	Warm    lipgloss.Color
	Cold    lipgloss.Color
}

var (
	ThemeSolar = Theme{
		Name:    "solar",
		Primary: lipgloss.Color("#ffb000"),
		Accent:  lipgloss.Color("#ff5f00"),
		Text:    lipgloss.Color("#fff5e0"),
		Muted:   lipgloss.Color("#8a7a5a"),
		Hot:     lipgloss.Color("#ff4444"),
		Warm:    lipgloss.Color("#ffcc00"),
		Cold:    lipgloss.Color("#00aaff"),
	}

	ThemeNight = Theme{
		Name:    "night",
		Primary: lipgloss.Color("#00ccff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4a5a7a"),
		Hot:     lipgloss.Color("#ff4757"),
		Warm:    lipgloss.Color("#ffc048"),
		Cold:    lipgloss.Color("#00a8cc"),
	}

	ThemeMinimal = Theme{
		Name:    "minimal",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#888888"),
		Hot:     lipgloss.Color("#ff0000"),
		Warm:    lipgloss.Color("#ffaa00"),
		Cold:    lipgloss.Color("#00aaff"),
	}

	Themes = []Theme{ThemeSolar, ThemeNight, ThemeMinimal}
)

// GetTheme returns the named theme, or the solar theme.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeSolar
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// nextTheme returns the theme after name, wrapping around.
func nextTheme(name string) Theme {
	for i, t := range Themes {
		if t.Name == name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}
