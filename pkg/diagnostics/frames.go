package diagnostics

import (
	"regexp"
	"strconv"
	"strings"
)

// Frame is one parsed stack frame.
type Frame struct {
	FunctionName string
	FileName     string
	Line         int
	Column       int
	// SourceFileName is the pre-transform location a source-mapped frame
	// points back to (the text after "<- ").
	SourceFileName string
	SourceLine     int
	SourceColumn   int
	IsNative       bool
	// Raw is the trimmed line the frame was parsed from.
	Raw string
}

var (
	v8FrameRe    = regexp.MustCompile(`^\s*at\s+(.+?)\s*$`)
	geckoFrameRe = regexp.MustCompile(`^\s*([^@\s]*)@(\S+:\d+(?::\d+)?)\s*$`)
	locationRe   = regexp.MustCompile(`^(.*?)(?::(\d+))?(?::(\d+))?$`)
	// v8Tail tells frames from prose that happens to start with "at".
	v8Tail = regexp.MustCompile(`(\)|:\d+|^<[^>]+>)$`)

	vendorSegment = "node_modules/"
	internalRe    = regexp.MustCompile(`(^|/)node_modules/(jasmine-core|karma-jasmine|karma)/|^<Jasmine>$`)
)

// ParseFrame parses a V8 ("at fn (file:1:2)") or Gecko ("fn@file:1:2")
// stack line.
func ParseFrame(line string) (Frame, bool) {
	if m := v8FrameRe.FindStringSubmatch(line); m != nil && v8Tail.MatchString(m[1]) {
		return parseV8(m[1], strings.TrimSpace(line)), true
	}
	if m := geckoFrameRe.FindStringSubmatch(line); m != nil {
		f := Frame{FunctionName: m[1], Raw: strings.TrimSpace(line)}
		f.FileName, f.Line, f.Column = parseLocation(m[2])
		return f, true
	}
	return Frame{}, false
}

func parseV8(body, raw string) Frame {
	f := Frame{Raw: raw}
	loc := body
	if strings.HasSuffix(body, ")") {
		if i := strings.LastIndex(body, " ("); i >= 0 {
			f.FunctionName = body[:i]
			loc = body[i+2 : len(body)-1]
		}
	}

	if loc == "native" || strings.HasPrefix(loc, "native ") {
		f.IsNative = true
		return f
	}

	if i := strings.Index(loc, " <- "); i >= 0 {
		f.SourceFileName, f.SourceLine, f.SourceColumn = parseLocation(strings.TrimSpace(loc[i+4:]))
		loc = loc[:i]
	}
	f.FileName, f.Line, f.Column = parseLocation(strings.TrimSpace(loc))
	return f
}

func parseLocation(loc string) (string, int, int) {
	m := locationRe.FindStringSubmatch(loc)
	if m == nil {
		return loc, 0, 0
	}
	line, _ := strconv.Atoi(m[2])
	col, _ := strconv.Atoi(m[3])
	return m[1], line, col
}

// ParseFrames returns the frames found in text, in order.
func ParseFrames(text string) []Frame {
	var frames []Frame
	for _, line := range strings.Split(text, "\n") {
		if f, ok := ParseFrame(line); ok {
			frames = append(frames, f)
		}
	}
	return frames
}

// IsInternal reports frames of the test framework's own runner.
func (f Frame) IsInternal() bool {
	return internalRe.MatchString(f.FileName)
}

// IsUserCode reports frames in project sources.
func (f Frame) IsUserCode() bool {
	return !f.IsNative && f.FileName != "" && f.Line > 0 && !strings.Contains(f.FileName, vendorSegment)
}

// NearestUserFrame returns the first frame in project sources.
func NearestUserFrame(frames []Frame) (Frame, bool) {
	for _, f := range frames {
		if f.IsUserCode() {
			return f, true
		}
	}
	return Frame{}, false
}

// Location renders file:line:col with the original location, if any.
func (f Frame) Location() string {
	loc := formatLocation(f.FileName, f.Line, f.Column)
	if f.SourceFileName != "" {
		loc += " <- " + formatLocation(f.SourceFileName, f.SourceLine, f.SourceColumn)
	}
	return loc
}

func formatLocation(file string, line, col int) string {
	var b strings.Builder
	b.WriteString(file)
	if line > 0 {
		b.WriteString(":" + strconv.Itoa(line))
		if col > 0 {
			b.WriteString(":" + strconv.Itoa(col))
		}
	}
	return b.String()
}
