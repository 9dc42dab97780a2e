package style

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Each color adapts to light and dark terminals.
var (
	BadgeColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}
	PassColor  = lipgloss.AdaptiveColor{Light: "#16A34A", Dark: "#4ADE80"}
	FailColor  = lipgloss.AdaptiveColor{Light: "#C026D3", Dark: "#E879F9"}
	ErrorColor = lipgloss.AdaptiveColor{Light: "#DC3545", Dark: "#FF6B7D"}
	WarnColor  = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FFD54F"}
	PathColor  = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#A0A8B0"}
	MutedColor = lipgloss.AdaptiveColor{Light: "#6C757D", Dark: "#ADB5BD"}
	CodeColor  = lipgloss.AdaptiveColor{Light: "#007ACC", Dark: "#3D9EFF"}
)
