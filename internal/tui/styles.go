package tui

import "github.com/charmbracelet/lipgloss"

const (
	themeDark  = "dark"
	themeLight = "light"
)

type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	accent    lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	err       lipgloss.Color
	fg        lipgloss.Color
	subtle    lipgloss.Color
	highlight lipgloss.Color
}

var palettes = map[string]palette{
	themeDark: {
		primary:   "#E4572E",
		secondary: "#2EC4B6",
		accent:    "#FF6B6B",
		muted:     "#666666",
		success:   "#2ECC71",
		warning:   "#F39C12",
		err:       "#E74C3C",
		fg:        "#C0CAF5",
		subtle:    "#414868",
		highlight: "#7AA2F7",
	},
	themeLight: {
		primary:   "#C0392B",
		secondary: "#16867A",
		accent:    "#D35400",
		muted:     "#7F8C8D",
		success:   "#1E8449",
		warning:   "#B9770E",
		err:       "#A93226",
		fg:        "#1C1E26",
		subtle:    "#BDC3C7",
		highlight: "#2462C2",
	},
}

// categoryColors tint chart segments by category position.
var categoryColors = []lipgloss.Color{"#E4572E", "#2EC4B6", "#7AA2F7", "#F39C12", "#9B59B6", "#95A5A6", "#2ECC71", "#E84393"}

var (
	currentTheme = themeDark

	colorPrimary lipgloss.Color
	colorSubtle  lipgloss.Color

	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	timerRunningStyle lipgloss.Style
	timerBreakStyle   lipgloss.Style
	titleStyle        lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
)

func init() { applyTheme(themeDark) }

// applyTheme rebuilds every style from the named palette. Unknown names
// fall back to the dark theme.
func applyTheme(name string) {
	p, ok := palettes[name]
	if !ok {
		name, p = themeDark, palettes[themeDark]
	}
	currentTheme = name
	colorPrimary = p.primary
	colorSubtle = p.subtle

	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.primary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(p.primary).
		Padding(0, 2)
	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(p.muted).
		Padding(0, 2)

	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.subtle).
		Padding(1, 2)
	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.primary).
		Padding(1, 2)

	timerStyle = lipgloss.NewStyle().Bold(true).Foreground(p.fg).Align(lipgloss.Center)
	timerRunningStyle = lipgloss.NewStyle().Bold(true).Foreground(p.primary).Align(lipgloss.Center)
	timerBreakStyle = lipgloss.NewStyle().Bold(true).Foreground(p.success).Align(lipgloss.Center)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.fg)
	accentStyle = lipgloss.NewStyle().Foreground(p.accent)
	successStyle = lipgloss.NewStyle().Foreground(p.success)
	warningStyle = lipgloss.NewStyle().Foreground(p.warning)
	errorStyle = lipgloss.NewStyle().Foreground(p.err)
	mutedStyle = lipgloss.NewStyle().Foreground(p.muted)
	highlightStyle = lipgloss.NewStyle().Foreground(p.highlight)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(p.muted).Padding(0, 1)

	selectedItemStyle = lipgloss.NewStyle().Foreground(p.primary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(p.fg)
}
