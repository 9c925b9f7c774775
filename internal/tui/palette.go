package tui

import "github.com/charmbracelet/lipgloss"

// Ink and Dim adapt to the terminal background; accents read on both.
var (
	ColorInk       = lipgloss.AdaptiveColor{Light: "#2E3440", Dark: "#E5E9F0"}
	ColorDim       = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#7A8291"}
	ColorAccent    = lipgloss.Color("#5E81AC")
	ColorAccentAlt = lipgloss.Color("#81A1C1")
	ColorSuccess   = lipgloss.Color("#A3BE8C")
	ColorWarn      = lipgloss.Color("#D08770")
)
