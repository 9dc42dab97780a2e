package webpack

import (
	"context"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/types"
)

// WellKnownConfigs are searched in reverse: later entries win.
var WellKnownConfigs = []string{"webpack.config.babel.js", "webpack.config.js"}

// Candidates lists config files from highest to lowest priority: the
// explicit option, then script-derived paths (later scripts first), then
// the well-known names (later names first).
func Candidates(m *manifest.Manifest, opts types.Options) []string {
	declared := append([]string{}, WellKnownConfigs...)
	if m != nil {
		declared = append(declared, m.ConfigPathsFromScripts("webpack")...)
	}

	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	add(opts.WebpackConfig)
	for i := len(declared) - 1; i >= 0; i-- {
		add(declared[i])
	}
	return out
}

// factoryArgs are passed to configs that export a function.
func factoryArgs() []any {
	return []any{
		map[string]any{"karmatic": true},
		map[string]any{"mode": "development", "karmatic": true},
	}
}

// LoadUserConfig returns the first candidate that loads. Candidates that
// are missing or fail to evaluate are skipped; a nil result means no user
// config applies.
func (r *Resolver) LoadUserConfig(ctx context.Context, m *manifest.Manifest, opts types.Options) *jsconfig.Result {
	for _, candidate := range Candidates(m, opts) {
		res, err := r.loader.Load(ctx, candidate, factoryArgs()...)
		if err == nil {
			r.logger.Debug().Str("path", res.Path).Str("kind", string(res.Kind)).Msg("Loaded webpack config")
			return res
		}
		if errors.IsErrorCode(err, errors.ErrConfigAbsent) {
			if candidate == opts.WebpackConfig {
				r.logger.Warn().Str("path", candidate).Msg("Configured webpack config does not exist")
			}
			continue
		}
		r.logger.Warn().Err(err).Str("path", candidate).Msg("Ignoring webpack config that failed to load")
	}
	return nil
}
