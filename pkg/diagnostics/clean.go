// Package diagnostics turns raw error output from the runner engine into a
// readable report: the error message, a code frame around the first
// project frame, and a cleaned stack with project-relative paths.
package diagnostics

import (
	"os"
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

const defaultWidth = 80

var preambleRe = regexp.MustCompile(`(?s)^.+\n\n([A-Za-z]*Error: )`)

// Formatter renders diagnostics.
type Formatter struct {
	fs     afero.Fs
	width  int
	color  bool
	logger zerolog.Logger

	message lipgloss.Style
	path    lipgloss.Style
	muted   lipgloss.Style
	marker  lipgloss.Style
}

// Option customises a Formatter.
type Option func(*Formatter)

// WithColor enables or disables ANSI styling.
func WithColor(enabled bool) Option {
	return func(f *Formatter) { f.color = enabled }
}

// WithWidth sets the terminal width code frames are fitted to.
func WithWidth(width int) Option {
	return func(f *Formatter) { f.width = width }
}

// New creates a formatter reading sources from fs. Color and width default
// to what stdout supports.
func New(fs afero.Fs, opts ...Option) *Formatter {
	f := &Formatter{
		fs:     fs,
		width:  terminalWidth(),
		color:  termenv.NewOutput(os.Stdout).Profile != termenv.Ascii,
		logger: logging.GetLogger("diagnostics"),
	}
	for _, opt := range opts {
		opt(f)
	}

	r := lipgloss.NewRenderer(os.Stdout)
	switch {
	case !f.color:
		r.SetColorProfile(termenv.Ascii)
	case r.ColorProfile() == termenv.Ascii:
		r.SetColorProfile(termenv.ANSI256)
	}
	f.message = r.NewStyle().Foreground(style.ErrorColor)
	f.path = r.NewStyle().Foreground(style.PathColor)
	f.muted = r.NewStyle().Inherit(style.MutedStyle)
	f.marker = r.NewStyle().Inherit(style.ErrorStyle)
	return f
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

// CleanStack formats raw error text with a default formatter on the real
// filesystem.
func CleanStack(raw, cwd string) string {
	return New(filesystem.NewOS()).CleanStack(raw, cwd)
}

// StripPreamble drops everything before the last error heading that follows
// a blank line, so only the innermost reported error remains.
func StripPreamble(text string) string {
	return preambleRe.ReplaceAllString(text, "$1")
}

// RewriteLocations turns served URLs and bundler URLs into paths relative
// to cwd and drops cache-busting query strings.
func RewriteLocations(text, cwd string) string {
	re := locationPattern(cwd)
	return re.ReplaceAllStringFunc(text, func(match string) string {
		m := re.FindStringSubmatch(match)
		before, root, file, position := m[1], m[2], m[3], m[4]
		if root == "" && (strings.HasPrefix(file, "/") || strings.HasPrefix(file, ".")) {
			return before + file + position
		}
		return before + "./" + file + position
	})
}

func locationPattern(cwd string) *regexp.Regexp {
	roots := []string{`[a-zA-Z][a-zA-Z0-9+.-]*://[^/\s]+/base/`, `webpack:///(?:\./)?`}
	if cwd = strings.TrimRight(cwd, "/"); cwd != "" {
		roots = append(roots, regexp.QuoteMeta(cwd)+`/+`)
	}
	return regexp.MustCompile(`( |\()(` + strings.Join(roots, "|") + `)?([^\s():?]+?)(?:\?[a-zA-Z0-9=&_-]*)?(:\d+(?::\d+)?)`)
}

// CleanStack returns the message, a code frame for the nearest project
// frame when its source is readable, and the cleaned stack.
func (f *Formatter) CleanStack(raw, cwd string) string {
	text := RewriteLocations(StripPreamble(stripansi.Strip(raw)), cwd)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	first := -1
	for i, line := range lines {
		if _, ok := ParseFrame(line); ok {
			first = i
			break
		}
	}
	if first < 0 {
		return f.styleLines(f.message, text)
	}

	message := strings.TrimRight(strings.Join(lines[:first], "\n"), " \n")
	var frames []Frame
	var stack []string
	for _, line := range lines[first:] {
		frame, ok := ParseFrame(line)
		if !ok {
			if strings.TrimSpace(line) != "" {
				stack = append(stack, "  "+f.muted.Render(strings.TrimSpace(line)))
			}
			continue
		}
		if frame.IsInternal() {
			continue
		}
		frames = append(frames, frame)
		stack = append(stack, f.renderFrame(frame))
	}

	var parts []string
	if message != "" {
		parts = append(parts, f.styleLines(f.message, message))
	}
	if frame, ok := NearestUserFrame(frames); ok {
		excerpt, err := f.CodeFrame(resolvePath(cwd, frame.FileName), frame.Line, frame.Column)
		if err != nil {
			f.logger.Warn().Err(err).Str("file", frame.FileName).Msg("Could not render code frame")
		} else if excerpt != "" {
			parts = append(parts, excerpt)
		}
	}
	if len(stack) > 0 {
		parts = append(parts, strings.Join(stack, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func (f *Formatter) renderFrame(frame Frame) string {
	if frame.IsNative {
		return "  " + f.muted.Render(frame.Raw)
	}
	if frame.FunctionName == "" {
		return "  " + f.muted.Render("at "+frame.Location())
	}
	return "  at " + frame.FunctionName + " (" + f.path.Render(frame.Location()) + ")"
}

func (f *Formatter) styleLines(st lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = st.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func resolvePath(cwd, file string) string {
	file = strings.TrimPrefix(file, "./")
	if strings.HasPrefix(file, "/") || cwd == "" {
		return file
	}
	return strings.TrimRight(cwd, "/") + "/" + file
}
