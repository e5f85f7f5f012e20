package ui

import "github.com/charmbracelet/lipgloss"

var (
	ColorAccent = lipgloss.Color("#FFB000")
	ColorText   = lipgloss.Color("#CCCCCC")
	ColorDim    = lipgloss.Color("#555555")
	ColorAlert  = lipgloss.Color("#FF3300")
)

var (
	StyleTitleBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#221A00")).
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StyleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#221A00")).
			Foreground(ColorText).
			Padding(0, 1)

	StyleStatusLive = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleStatusPaused = lipgloss.NewStyle().
				Foreground(ColorAlert).
				Bold(true)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDim)

	StyleRuler = lipgloss.NewStyle().
			Foreground(ColorDim)
)
