package style

import "github.com/charmbracelet/lipgloss"

// Palette of the player screen. Toast themes pick from the accents.
var (
	Base    = lipgloss.Color("#1e1e2e")
	Text    = lipgloss.Color("#cdd6f4")
	Overlay = lipgloss.Color("#6c7086")
	Surface = lipgloss.Color("#313244")

	Pink   = lipgloss.Color("#f5c2e7")
	Mauve  = lipgloss.Color("#cba6f7")
	Red    = lipgloss.Color("#f38ba8")
	Yellow = lipgloss.Color("#f9e2af")
	Green  = lipgloss.Color("#a6e3a1")
	Blue   = lipgloss.Color("#89b4fa")

	AccentColor = Mauve
	ErrorColor  = Red
	HiRed       = Red
	FaintColor  = Overlay
	BorderColor = Surface
)
