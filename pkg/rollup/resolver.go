// Package rollup attaches a rollup bundling stage to a runner
// configuration. Rollup plugins form a flat list, so the syntax transform
// is appended to the user's plugins instead of being matched against them.
package rollup

import (
	"context"
	"fmt"

	"github.com/arthur-debert/karmatic/pkg/babel"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/rs/zerolog"
)

// PackageName is the module probed to decide whether rollup is available.
const PackageName = "rollup"

const (
	pluginCommonJS    = "@rollup/plugin-commonjs"
	pluginNodeResolve = "@rollup/plugin-node-resolve"
)

// WellKnownConfigs are searched in reverse: later entries win.
var WellKnownConfigs = []string{"rollup.config.js", "rollup.config.cjs", "rollup.config.mjs"}

// Resolver builds rollup stages for one project directory.
type Resolver struct {
	finder pkgresolve.Finder
	loader *jsconfig.Loader
	logger zerolog.Logger
	// Warn receives user-facing warnings. Defaults to a no-op.
	Warn func(msg string)
}

// New creates a resolver.
func New(finder pkgresolve.Finder, loader *jsconfig.Loader) *Resolver {
	return &Resolver{
		finder: finder,
		loader: loader,
		logger: logging.GetLogger("rollup.resolver"),
		Warn:   func(string) {},
	}
}

// Probe reports the installed rollup, or pkgresolve.ErrNotFound.
func (r *Resolver) Probe() (pkgresolve.PackageInfo, error) {
	return r.finder.Lookup(PackageName)
}

// Candidates lists config files from highest to lowest priority.
func Candidates(m *manifest.Manifest, opts types.Options) []string {
	declared := append([]string{}, WellKnownConfigs...)
	if m != nil {
		declared = append(declared, m.ConfigPathsFromScripts("rollup")...)
	}

	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(opts.RollupConfig)
	for i := len(declared) - 1; i >= 0; i-- {
		add(declared[i])
	}
	return out
}

// LoadUserConfig returns the first candidate that loads. A config that
// resolves asynchronously stops the search: the default config is used
// instead, with a warning.
func (r *Resolver) LoadUserConfig(ctx context.Context, m *manifest.Manifest, opts types.Options) *jsconfig.Result {
	for _, candidate := range Candidates(m, opts) {
		res, err := r.loader.Load(ctx, candidate, map[string]any{"karmatic": true})
		switch {
		case err == nil:
			for _, w := range res.Warnings {
				r.Warn(w)
			}
			r.logger.Debug().Str("path", res.Path).Str("kind", string(res.Kind)).Msg("Loaded rollup config")
			return res
		case errors.IsErrorCode(err, errors.ErrConfigAbsent):
			continue
		case errors.IsErrorCode(err, errors.ErrConfigUnsupported):
			r.logger.Warn().Err(err).Str("path", candidate).Msg("Asynchronous rollup config, using defaults")
			r.Warn("Karmatic does not currently support asynchronous rollup configs. Using a default config instead.")
			return nil
		case ctx.Err() != nil:
			r.logger.Warn().Err(err).Msg("Rollup config discovery cancelled")
			return nil
		default:
			r.logger.Warn().Err(err).Str("path", candidate).Msg("Ignoring rollup config that failed to load")
		}
	}
	return nil
}

// Resolve discovers the user's config and attaches the rollup stage to rc.
// Files are unwatched because the preprocessor runs its own watcher.
func (r *Resolver) Resolve(ctx context.Context, rc *types.RunnerConfig, m *manifest.Manifest, opts types.Options) error {
	if _, err := r.Probe(); err != nil {
		return err
	}

	var stage *types.RollupStage
	if res := r.LoadUserConfig(ctx, m, opts); res != nil {
		stage = r.UserStage(res.Value, opts)
		stage.UserConfigPath = res.Path
	} else {
		stage = r.DefaultStage(m, opts)
	}

	rc.SetWatched(false)
	return rc.AttachStage(stage)
}

// UserStage keeps the user's config and appends the syntax transform to
// its plugin list. User plugins are referenced, not copied.
func (r *Resolver) UserStage(user map[string]any, opts types.Options) *types.RollupStage {
	extra := jsvalue.Clone(user).(map[string]any)
	delete(extra, "plugins")
	output, _ := jsvalue.AsMap(extra["output"])
	delete(extra, "output")

	var plugins []any
	for i, p := range jsvalue.AsSlice(user["plugins"]) {
		if p == nil || p == false {
			continue
		}
		plugins = append(plugins, jsvalue.Raw{Code: jsvalue.Index(jsconfig.RootRef+".plugins", i)})
	}
	plugins = append(plugins, r.transformPlugin(opts))

	if output == nil {
		output = map[string]any{"format": "iife", "sourcemap": "inline"}
	}
	if len(extra) == 0 {
		extra = nil
	}
	return &types.RollupStage{Plugins: plugins, Output: output, Extra: extra}
}

// DefaultStage is used when no user config applies. Plugins that are not
// installed are left out.
func (r *Resolver) DefaultStage(m *manifest.Manifest, opts types.Options) *types.RollupStage {
	var plugins []any
	for _, name := range []string{pluginCommonJS, pluginNodeResolve} {
		info, err := r.finder.Lookup(name)
		if err != nil {
			r.logger.Debug().Str("plugin", name).Msg("Rollup plugin not installed, skipping")
			continue
		}
		plugins = append(plugins, jsvalue.ModuleCall{Module: info.EntryPath()})
	}
	if _, ok := r.babelPlugin(); ok {
		plugins = append(plugins, r.transformPlugin(opts))
	} else {
		r.logger.Warn().Msg("No rollup babel plugin installed, sources will not be transformed")
	}

	name := "karmatic"
	if m != nil && m.Name != "" {
		name = m.Name
	}
	return &types.RollupStage{
		Plugins: plugins,
		Output: map[string]any{
			"format":    "iife",
			"name":      fmt.Sprintf("%s-karmatic-tests", name),
			"sourcemap": "inline",
		},
	}
}

func (r *Resolver) babelPlugin() (string, bool) {
	for _, name := range []string{babel.RollupPlugin, babel.RollupPluginOld} {
		if info, err := r.finder.Lookup(name); err == nil {
			return info.EntryPath(), true
		}
	}
	return babel.RollupPlugin, false
}

func (r *Resolver) transformPlugin(opts types.Options) jsvalue.ModuleCall {
	module, _ := r.babelPlugin()
	return jsvalue.ModuleCall{Module: module, Args: []any{babel.Config(opts, r.finder)}}
}
