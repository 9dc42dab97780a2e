package diagnostics

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/afero"
)

const (
	linesBefore = 2
	linesAfter  = 2
	tabWidth    = 4
	// widthMargin keeps excerpts clear of the terminal edge.
	widthMargin = 10
)

// CodeFrame renders the lines around line:col of path. Line and column are
// 1-based. A line outside the file yields an empty excerpt.
func (f *Formatter) CodeFrame(path string, line, col int) (string, error) {
	data, err := afero.ReadFile(f.fs, path)
	if err != nil {
		return "", err
	}
	source := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if line < 1 || line > len(source) {
		return "", nil
	}

	start := max(1, line-linesBefore)
	end := min(len(source), line+linesAfter)
	window := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		window = append(window, strings.ReplaceAll(source[i-1], "\t", strings.Repeat(" ", tabWidth)))
	}

	indent := commonIndent(window)
	maxText := f.width - widthMargin - gutterWidth(end)
	if maxText < 20 {
		maxText = 20
	}
	for i, l := range window {
		if len(l) >= indent {
			l = l[indent:]
		}
		window[i] = runewidth.Truncate(l, maxText, "…")
	}
	highlighted := f.highlight(path, window)

	numWidth := len(fmt.Sprint(end))
	var b strings.Builder
	for i := range window {
		n := start + i
		gutter := fmt.Sprintf(" %*d | ", numWidth, n)
		if n == line {
			b.WriteString(f.marker.Render(">") + f.muted.Render(gutter) + highlighted[i] + "\n")
			b.WriteString(" " + f.muted.Render(strings.Repeat(" ", len(gutter)-2)+"| "))
			b.WriteString(strings.Repeat(" ", caretOffset(source[line-1], col, indent)) + f.marker.Render("^") + "\n")
			continue
		}
		b.WriteString(" " + f.muted.Render(gutter) + highlighted[i] + "\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func gutterWidth(last int) int {
	return len(fmt.Sprint(last)) + 4
}

// caretOffset is the display column of col within the outdented line.
func caretOffset(line string, col, indent int) int {
	if col < 1 {
		return 0
	}
	prefix := line
	if col-1 < len(line) {
		prefix = line[:col-1]
	}
	width := runewidth.StringWidth(strings.ReplaceAll(prefix, "\t", strings.Repeat(" ", tabWidth)))
	return max(0, width-indent)
}

func commonIndent(lines []string) int {
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	return max(0, indent)
}

// highlight returns the lines with syntax colouring, or unchanged when
// colour is off or the source cannot be tokenised.
func (f *Formatter) highlight(path string, lines []string) []string {
	if !f.color {
		return lines
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Get("javascript")
	}
	if lexer == nil {
		return lines
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, strings.Join(lines, "\n"))
	if err != nil {
		return lines
	}
	var buf bytes.Buffer
	if err := formatters.Get("terminal256").Format(&buf, styles.Get("monokai"), iterator); err != nil {
		return lines
	}
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(out) != len(lines) {
		return lines
	}
	return out
}
