package manifest

import (
	"path"
	"strings"

	"github.com/mattn/go-shellwords"
)

// ConfigPathsFromScripts returns the config files passed to tool with -c or
// --config across all scripts, in declaration order. Only the command
// segment that invokes tool is searched, so flags of a chained command are
// not attributed to it.
func (m *Manifest) ConfigPathsFromScripts(tool string) []string {
	var out []string
	for _, s := range m.Scripts {
		out = append(out, ConfigPathsFromCommand(s.Command, tool)...)
	}
	return out
}

// ConfigPathsFromCommand extracts config paths passed to tool in one command
// line.
func ConfigPathsFromCommand(command, tool string) []string {
	var out []string
	for _, args := range commandSegments(command) {
		start := -1
		for i, arg := range args {
			if invokes(arg, tool) {
				start = i + 1
				break
			}
		}
		if start < 0 {
			continue
		}
		for i := start; i < len(args); i++ {
			arg := args[i]
			switch {
			case arg == "-c" || arg == "--config":
				if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
					out = append(out, args[i+1])
					i++
				}
			case strings.HasPrefix(arg, "--config="):
				if v := strings.TrimPrefix(arg, "--config="); v != "" {
					out = append(out, v)
				}
			case strings.HasPrefix(arg, "-c="):
				if v := strings.TrimPrefix(arg, "-c="); v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func invokes(arg, tool string) bool {
	base := path.Base(strings.ReplaceAll(arg, "\\", "/"))
	return base == tool || base == tool+"-cli" || base == tool+".js" || base == tool+".cmd"
}

// commandSegments splits a command line into the words of each command
// joined by &&, ||, |, ; or a redirection. Parsing stops at an unterminated
// quote.
func commandSegments(command string) [][]string {
	var segments [][]string
	rest := []rune(command)
	for len(rest) > 0 {
		p := shellwords.NewParser()
		args, err := p.Parse(string(rest))
		if err != nil {
			break
		}
		if len(args) > 0 {
			segments = append(segments, args)
		}
		if p.Position < 0 {
			break
		}
		i := p.Position
		for i < len(rest) && strings.ContainsRune(";&|<>", rest[i]) {
			i++
		}
		rest = rest[i:]
	}
	return segments
}
