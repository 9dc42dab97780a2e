package style

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
)

// Output holds the styles used to prettify runner output, bound to one
// renderer so color can be switched off per destination.
type Output struct {
	Badge   lipgloss.Style
	Console lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Muted   lipgloss.Style
}

// NewOutput binds the runner output styles to r.
func NewOutput(r *lipgloss.Renderer) Output {
	return Output{
		Badge:   r.NewStyle().Inherit(BadgeStyle),
		Console: r.NewStyle().Inherit(ConsoleStyle),
		Pass:    r.NewStyle().Inherit(PassStyle),
		Fail:    r.NewStyle().Inherit(FailStyle),
		Muted:   r.NewStyle().Inherit(MutedStyle),
	}
}

// PlainOutput returns styles that render text unchanged.
func PlainOutput(w io.Writer) Output {
	return NewOutput(NewRenderer(w, false))
}

// Warn prints a user-facing warning line.
func Warn(w io.Writer, msg string) {
	pterm.Warning.WithWriter(w).Println(msg)
}

// Fail prints a user-facing error line.
func Fail(w io.Writer, msg string) {
	pterm.Error.WithWriter(w).Println(msg)
}
