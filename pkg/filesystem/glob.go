package filesystem

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchGlob checks if a path matches a runner file pattern. Both are
// compared in slash form. Supported syntax is doublestar's: * and ? within a
// segment, ** across directories, [class] and {a,b} alternatives. A
// malformed pattern matches nothing.
func MatchGlob(path, pattern string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(path))
	return err == nil && ok
}

// HasMeta reports whether pattern contains glob operators.
func HasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?{[")
}
