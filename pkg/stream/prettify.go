package stream

import (
	"regexp"
	"strings"

	"github.com/acarl005/stripansi"
	"github.com/arthur-debert/karmatic/pkg/diagnostics"
	"github.com/arthur-debert/karmatic/pkg/style"
)

var (
	consoleLogRe = regexp.MustCompile(`^LOG ([A-Z]+): (.*)$`)
	browserRe    = regexp.MustCompile(`^\s*(?:Headless)?(?:Chrome|Firefox|Safari|Edge)\b.*?\)\s*: `)
	successRe    = regexp.MustCompile(`\bSUCCESS\b`)
	totalRe      = regexp.MustCompile(`^\s*TOTAL: `)
)

// Prettifier is the filter chain for engine output: the multi-browser
// TOTAL line is dropped, forwarded console calls get a badge, the browser
// prefix is stripped and stack blocks are cleaned.
func Prettifier(out style.Output, stacks *StackFilter) Chain {
	return Chain{TotalFilter(), ConsoleLogFilter(out), BrowserPrefixFilter(out), stacks}
}

// TotalFilter drops the cross-browser summary line.
func TotalFilter() Filter {
	return FilterFunc(func(line string) []string {
		if totalRe.MatchString(stripansi.Strip(line)) {
			return nil
		}
		return []string{line}
	})
}

// ConsoleLogFilter renders "LOG LEVEL: text" as a badge followed by the
// text.
func ConsoleLogFilter(out style.Output) Filter {
	return FilterFunc(func(line string) []string {
		m := consoleLogRe.FindStringSubmatch(stripansi.Strip(line))
		if m == nil {
			return []string{line}
		}
		return []string{out.Badge.Render(" "+m[1]+": ") + " " + out.Console.Render(m[2])}
	})
}

// BrowserPrefixFilter strips the "<browser> (<platform>): " prefix. Only
// one browser runs, so the prefix carries no information. The rest of the
// line is colored by outcome.
func BrowserPrefixFilter(out style.Output) Filter {
	return FilterFunc(func(line string) []string {
		plain := stripansi.Strip(line)
		loc := browserRe.FindStringIndex(plain)
		if loc == nil {
			return []string{line}
		}
		rest := plain[loc[1]:]
		if successRe.MatchString(rest) {
			return []string{out.Pass.Render(rest)}
		}
		return []string{out.Fail.Render(rest)}
	})
}

// StackFilter collects a failure message and the stack frames that follow
// it and replaces the block with the cleaned diagnostic. An indented line
// is held back until the next line shows whether a stack follows.
type StackFilter struct {
	formatter *diagnostics.Formatter
	cwd       string

	pending    string
	hasPending bool
	frames     []string
}

// NewStackFilter cleans stacks relative to cwd.
func NewStackFilter(formatter *diagnostics.Formatter, cwd string) *StackFilter {
	return &StackFilter{formatter: formatter, cwd: cwd}
}

// Apply implements Filter.
func (s *StackFilter) Apply(line string) []string {
	plain := stripansi.Strip(line)
	if _, ok := diagnostics.ParseFrame(plain); ok {
		s.frames = append(s.frames, strings.TrimSpace(plain))
		return nil
	}

	out := s.release()
	if indentOf(plain) != "" {
		s.pending, s.hasPending = line, true
		return out
	}
	return append(out, line)
}

// Flush implements Filter.
func (s *StackFilter) Flush() []string {
	return s.release()
}

func (s *StackFilter) release() []string {
	pending, hasPending, frames := s.pending, s.hasPending, s.frames
	s.pending, s.hasPending, s.frames = "", false, nil

	if len(frames) == 0 {
		if hasPending {
			return []string{pending}
		}
		return nil
	}

	var indent string
	var block []string
	if hasPending {
		plain := stripansi.Strip(pending)
		indent = indentOf(plain)
		block = append(block, strings.TrimSpace(plain))
	}
	block = append(block, frames...)

	cleaned := strings.Split(s.formatter.CleanStack(strings.Join(block, "\n"), s.cwd), "\n")
	for i, line := range cleaned {
		if line != "" {
			cleaned[i] = indent + line
		}
	}
	return cleaned
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
