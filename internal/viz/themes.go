package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI. Groups color the nodes by their
// dataset group; Link colors the edges.
type Theme struct {
	Name    string
	Primary lipgloss.Color
	Accent  lipgloss.Color
	Muted   lipgloss.Color
	Link    lipgloss.Color
	Groups  []lipgloss.Color
}

// Available themes
var (
	ThemeCategory = Theme{
		Name:    "category",
		Primary: lipgloss.Color("#00ffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Muted:   lipgloss.Color("#666688"),
		Link:    lipgloss.Color("#555555"),
		Groups: []lipgloss.Color{
			"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
			"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
		},
	}

	ThemeRetroGreen = Theme{
		Name:    "retro",
		Primary: lipgloss.Color("#00ff00"), // Green phosphor
		Accent:  lipgloss.Color("#88ff88"),
		Muted:   lipgloss.Color("#005500"),
		Link:    lipgloss.Color("#006600"),
		Groups:  []lipgloss.Color{"#00ff00", "#00cc00", "#88ff88", "#33ff99"},
	}

	ThemeSunset = Theme{
		Name:    "sunset",
		Primary: lipgloss.Color("#ff6b6b"), // Coral
		Accent:  lipgloss.Color("#ff9ff3"),
		Muted:   lipgloss.Color("#8b6b8c"),
		Link:    lipgloss.Color("#5a4a5b"),
		Groups:  []lipgloss.Color{"#ff6b6b", "#feca57", "#ff9ff3", "#5fd068", "#48dbfb"},
	}

	Themes = []Theme{
		ThemeCategory,
		ThemeRetroGreen,
		ThemeSunset,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCategory
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Styles returns the canvas styles: index 0 for links, 1+g for group g,
// and the last one for pinned bodies.
func (t Theme) Styles() []lipgloss.Style {
	styles := make([]lipgloss.Style, 0, len(t.Groups)+2)
	styles = append(styles, lipgloss.NewStyle().Foreground(t.Link))
	for _, c := range t.Groups {
		styles = append(styles, lipgloss.NewStyle().Foreground(c))
	}
	return append(styles, lipgloss.NewStyle().Foreground(t.Accent).Bold(true))
}

// GroupColor returns the canvas color index for a dataset group.
func (t Theme) GroupColor(group int) int {
	if group < 0 {
		group = -group
	}
	return 1 + group%len(t.Groups)
}

// PinnedColor returns the canvas color index for pinned bodies.
func (t Theme) PinnedColor() int {
	return len(t.Groups) + 1
}
