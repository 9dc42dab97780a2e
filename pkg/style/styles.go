package style

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// BadgeStyle marks the browser name that prefixes a console line.
	BadgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(BadgeColor)
	ConsoleStyle = lipgloss.NewStyle().Foreground(BadgeColor)
	PassStyle    = lipgloss.NewStyle().Foreground(PassColor)
	FailStyle    = lipgloss.NewStyle().Foreground(FailColor)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)

	ErrorStyle = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarnStyle  = lipgloss.NewStyle().Foreground(WarnColor).Bold(true)
	PathStyle  = lipgloss.NewStyle().Foreground(PathColor).Italic(true)
	CodeStyle  = lipgloss.NewStyle().Foreground(CodeColor)
	BoldStyle  = lipgloss.NewStyle().Bold(true)
)

// Indent pads every line of s by two spaces per level.
func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}
