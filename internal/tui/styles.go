package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#5B8DEF")
	colorBrand  = lipgloss.Color("#FF6B6B")
	colorMuted  = lipgloss.Color("#888888")
	colorFaint  = lipgloss.Color("#AAAAAA")
	colorBorder = lipgloss.Color("#444444")
	colorError  = lipgloss.Color("#E06C75")
	colorOK     = lipgloss.Color("#98C379")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBrand).MarginBottom(1)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	hintStyle   = lipgloss.NewStyle().Foreground(colorFaint).MarginTop(1)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
	okStyle     = lipgloss.NewStyle().Foreground(colorOK)
	labelStyle  = lipgloss.NewStyle().Bold(true)
	activeStep  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)
