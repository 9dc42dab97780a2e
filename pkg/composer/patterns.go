package composer

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/spf13/afero"
)

// DefaultFiles is used when no test files are given.
var DefaultFiles = []string{"**/{*.test.js,*_test.js}"}

var (
	recursiveRe    = regexp.MustCompile(`^\*\*/(.+)$`)
	gitignoreNoise = regexp.MustCompile(`#.*$`)
	alwaysExcluded = "node_modules"
	gitignoreFile  = ".gitignore"
)

// NormalizeFiles drops empty patterns and falls back to DefaultFiles.
func NormalizeFiles(files []string) []string {
	var out []string
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return append([]string{}, DefaultFiles...)
	}
	return out
}

// GitignoreEntries reads the top-level names listed in .gitignore.
// Comments and blank lines are dropped; a leading or trailing slash is
// ignored so "/dist/" and "dist" name the same entry.
func GitignoreEntries(fs afero.Fs, cwd string) []string {
	data, ok, err := filesystem.ReadFileIfExists(fs, filepath.Join(cwd, gitignoreFile))
	if err != nil || !ok {
		return nil
	}
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(gitignoreNoise.ReplaceAllString(line, ""))
		line = strings.Trim(line, "/")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// RepoRoot lists the top-level entries test globs may descend into:
// everything except dotfiles, node_modules and gitignored names.
func RepoRoot(fs afero.Fs, cwd string) ([]string, error) {
	names, err := filesystem.ReadDirNames(fs, cwd)
	if err != nil {
		return nil, err
	}
	return AllowList(names, GitignoreEntries(fs, cwd)), nil
}

// AllowList filters directory entries against the ignore list, keeping
// their order.
func AllowList(entries, ignored []string) []string {
	skip := map[string]bool{alwaysExcluded: true}
	for _, name := range ignored {
		skip[name] = true
	}
	var out []string
	for _, name := range entries {
		if name == "" || strings.HasPrefix(name, ".") || skip[name] {
			continue
		}
		out = append(out, name)
	}
	return out
}

// RootGlob joins the allow-list into a brace pattern. A single entry is
// used as is since one-element braces do not expand.
func RootGlob(root []string) string {
	switch len(root) {
	case 0:
		return ""
	case 1:
		return root[0]
	default:
		return "{" + strings.Join(root, ",") + "}"
	}
}

// ExpandPattern splits a `**/X` pattern into a copy scoped to the
// allow-list and the bare X for files at the root. Other patterns are
// returned unchanged.
func ExpandPattern(pattern string, root []string) []string {
	m := recursiveRe.FindStringSubmatch(pattern)
	if m == nil {
		return []string{pattern}
	}
	var out []string
	if glob := RootGlob(root); glob != "" {
		out = append(out, glob+"/"+m[0])
	}
	return append(out, m[1])
}
