package composer

import (
	"path/filepath"

	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/rollup"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/arthur-debert/karmatic/pkg/webpack"
)

// WatchTargets lists the absolute paths whose changes require a new
// runner configuration: the manifest, .gitignore, every bundler config
// candidate and any extra files such as the project's own config.
func WatchTargets(cwd string, m *manifest.Manifest, opts types.Options, extra ...string) []string {
	rel := []string{manifest.FileName, ".gitignore"}
	rel = append(rel, extra...)
	rel = append(rel, webpack.Candidates(m, opts)...)
	rel = append(rel, rollup.Candidates(m, opts)...)

	var out []string
	seen := map[string]bool{}
	for _, p := range rel {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
