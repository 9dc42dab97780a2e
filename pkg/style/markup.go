package style

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var tagPattern = regexp.MustCompile(`\[([a-z_]+)\]((?:[^\[]|\x1b\[)*?)\[/([a-z_]+)\]`)

// MarkupParser renders the [tag]text[/tag] markup used in CLI messages.
type MarkupParser struct {
	styles map[string]lipgloss.Style
}

// NewMarkupParser creates a parser knowing the default tags.
func NewMarkupParser() *MarkupParser {
	return &MarkupParser{
		styles: map[string]lipgloss.Style{
			"bold":  BoldStyle,
			"path":  PathStyle,
			"code":  CodeStyle,
			"muted": MutedStyle,
			"pass":  PassStyle,
			"fail":  FailStyle,
			"error": ErrorStyle,
			"warn":  WarnStyle,
		},
	}
}

// Render replaces known tags with their styled content. Nested tags are
// resolved innermost first; unknown or mismatched tags are left alone.
func (p *MarkupParser) Render(text string) string {
	for {
		changed := false
		text = tagPattern.ReplaceAllStringFunc(text, func(match string) string {
			m := tagPattern.FindStringSubmatch(match)
			style, ok := p.styles[m[1]]
			if !ok || m[1] != m[3] {
				return match
			}
			changed = true
			return style.Render(m[2])
		})
		if !changed {
			return text
		}
	}
}

// AddStyle registers or replaces a tag.
func (p *MarkupParser) AddStyle(tag string, style lipgloss.Style) {
	p.styles[tag] = style
}

// RenderTemplate substitutes {{key}} placeholders, then renders markup.
func (p *MarkupParser) RenderTemplate(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return p.Render(strings.NewReplacer(pairs...).Replace(template))
}

var defaultParser = NewMarkupParser()

// Render renders markup with the default parser.
func Render(text string) string {
	return defaultParser.Render(text)
}

// RenderTemplate renders a template with the default parser.
func RenderTemplate(template string, vars map[string]string) string {
	return defaultParser.RenderTemplate(template, vars)
}
