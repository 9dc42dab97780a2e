package webpack

import (
	"context"
	"path/filepath"
	"regexp"

	"github.com/arthur-debert/karmatic/pkg/babel"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/rules"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// PackageName is the module probed to decide whether webpack is available.
const PackageName = "webpack"

const (
	// RepresentativeSource is the file name a transform rule must handle.
	RepresentativeSource = "index.js"
	representativeStyle  = "foo.css"

	instrumenterLoader = "istanbul-instrumenter-loader"
)

var pluginAllowList = regexp.MustCompile(`(?i)^\s*(UglifyJS|HTML|ExtractText|BabelMinify)(.*Webpack)?Plugin\s*$`)

// Middleware keeps the dev middleware quiet.
var Middleware = map[string]any{
	"noInfo":   true,
	"logLevel": "error",
	"stats":    "errors-only",
}

// Resolver builds webpack stages for one project directory.
type Resolver struct {
	fs     afero.Fs
	cwd    string
	finder pkgresolve.Finder
	loader *jsconfig.Loader
	logger zerolog.Logger
}

// New creates a resolver. loader evaluates user configs.
func New(fs afero.Fs, cwd string, finder pkgresolve.Finder, loader *jsconfig.Loader) *Resolver {
	return &Resolver{
		fs:     fs,
		cwd:    cwd,
		finder: finder,
		loader: loader,
		logger: logging.GetLogger("webpack.resolver"),
	}
}

// Probe reports the installed webpack, or pkgresolve.ErrNotFound.
func (r *Resolver) Probe() (pkgresolve.PackageInfo, error) {
	return r.finder.Lookup(PackageName)
}

// Resolve discovers the user's config and attaches the webpack stage to rc.
func (r *Resolver) Resolve(ctx context.Context, rc *types.RunnerConfig, m *manifest.Manifest, opts types.Options) error {
	info, err := r.Probe()
	if err != nil {
		return err
	}

	var user map[string]any
	var userPath string
	if res := r.LoadUserConfig(ctx, m, opts); res != nil {
		user = res.Value
		userPath = res.Path
	}

	stage, err := r.BuildStage(user, info, m, opts)
	if err != nil {
		return err
	}
	stage.UserConfigPath = userPath
	return rc.AttachStage(stage)
}

// BuildStage merges a user config (nil when absent) with the generated
// defaults.
func (r *Resolver) BuildStage(user map[string]any, info pkgresolve.PackageInfo, m *manifest.Manifest, opts types.Options) (*types.WebpackStage, error) {
	if user == nil {
		user = map[string]any{}
	}

	ruleList := r.userRules(user)
	ruleList, err := r.ensureTransform(ruleList, opts)
	if err != nil {
		return nil, err
	}
	if opts.Coverage {
		ruleList = r.ensureCoverage(ruleList)
	}
	if css, err := r.styleRule(ruleList); err != nil {
		return nil, err
	} else if css != nil {
		ruleList = append(ruleList, css)
	}

	mode, _ := user["mode"].(string)
	if mode == "" {
		mode = "development"
	}

	name := ""
	if m != nil {
		name = m.Name
	}

	resolve, _ := jsvalue.AsMap(jsvalue.Clone(user["resolve"]))
	stage := &types.WebpackStage{
		Rules:          ruleList,
		ResolveModules: MergeSequence(jsvalue.AsSlice(deref(user, "resolve", "modules")), r.defaultModules()),
		ResolveAliases: MergeMapping(r.defaultAliases(name), mapAt(user, "resolve", "alias")),
		Resolve:        withoutKeys(resolve, "modules", "alias"),
		ResolveLoader:  r.resolveLoader(user, name),
		Plugins:        FilterPlugins(jsvalue.AsSlice(user["plugins"])),
		Mode:           mode,
		LegacyLoaders:  info.Major() < 4,
		Devtool:        "inline-source-map",
		Target:         "web",
		Node:           MergeMapping(map[string]any{}, mapAt(user, "node")),
		Middleware:     jsvalue.Clone(Middleware).(map[string]any),
	}
	if stage.LegacyLoaders {
		r.logger.Debug().Str("version", info.Version).Msg("Using legacy module.loaders layout")
	}
	return stage, nil
}

// userRules reads module.loaders followed by module.rules. Entries that
// are not rule objects are dropped.
func (r *Resolver) userRules(user map[string]any) []*rules.TransformRule {
	var raw []any
	raw = append(raw, jsvalue.AsSlice(deref(user, "module", "loaders"))...)
	raw = append(raw, jsvalue.AsSlice(deref(user, "module", "rules"))...)

	out := make([]*rules.TransformRule, 0, len(raw))
	for i, v := range raw {
		rule, err := rules.FromValue(v)
		if err != nil {
			r.logger.Warn().Err(err).Int("index", i).Msg("Skipping unreadable webpack rule")
			continue
		}
		out = append(out, rule)
	}
	return out
}

// TransformRule returns the rule handling source files: a babel-loader
// rule wins, otherwise the first non-enforced rule matching the
// representative source file.
func TransformRule(ruleList []*rules.TransformRule) (*rules.TransformRule, error) {
	if rule := rules.FindHandler(ruleList, babel.Loader); rule != nil {
		return rule, nil
	}
	var candidates []*rules.TransformRule
	for _, rule := range ruleList {
		if rule.Enforce() == "" {
			candidates = append(candidates, rule)
		}
	}
	return rules.FindRule(candidates, RepresentativeSource)
}

func (r *Resolver) ensureTransform(ruleList []*rules.TransformRule, opts types.Options) ([]*rules.TransformRule, error) {
	existing, err := TransformRule(ruleList)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "evaluating webpack rule conditions")
	}
	if existing != nil {
		r.logger.Debug().Str("handler", existing.HandlerName()).Msg("Source transform already configured")
		return ruleList, nil
	}
	r.logger.Debug().Msg("Adding babel-loader rule")
	return append(ruleList, babel.LoaderRule(opts, r.finder)), nil
}

// ensureCoverage merges the instrumentation plugin into the babel rule, or
// adds a post-enforced instrumenter rule when the transform is not babel.
func (r *Resolver) ensureCoverage(ruleList []*rules.TransformRule) []*rules.TransformRule {
	plugin := babel.CoveragePlugin(r.finder)
	if rule := rules.FindHandler(ruleList, babel.Loader); rule != nil {
		merged := rule.UpdateHandlerOptions(babel.Loader, func(options map[string]any) map[string]any {
			return babel.MergePlugins(options, plugin)
		})
		if merged {
			return ruleList
		}
		r.logger.Debug().Msg("babel-loader options are not an object, instrumenting with a separate rule")
	}

	if rules.FindHandler(ruleList, instrumenterLoader) != nil {
		return ruleList
	}
	info, err := r.finder.Lookup(instrumenterLoader)
	if err != nil {
		r.logger.Warn().Msg("Coverage requested but " + instrumenterLoader + " is not installed; coverage will be empty")
		return ruleList
	}
	rule := rules.NewRule(
		rules.MustPattern(`\.[jt]sx?$`, ""),
		babel.VendorPattern,
		info.EntryPath(),
		map[string]any{"esModules": true},
	)
	rule.Fields["enforce"] = "post"
	return append(ruleList, rule)
}

// styleRule returns a css rule when no rule handles stylesheets and both
// loaders are installed.
func (r *Resolver) styleRule(ruleList []*rules.TransformRule) (*rules.TransformRule, error) {
	existing, err := rules.FindRule(ruleList, representativeStyle)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigInvalid, "evaluating webpack rule conditions")
	}
	if existing != nil {
		return nil, nil
	}
	style, styleErr := r.finder.Lookup("style-loader")
	css, cssErr := r.finder.Lookup("css-loader")
	if styleErr != nil || cssErr != nil {
		return nil, nil
	}
	return rules.FromValue(map[string]any{
		"test": &jsvalue.RegExp{Source: `\.css$`},
		"use":  []any{style.EntryPath(), css.EntryPath()},
	})
}

func (r *Resolver) defaultModules() []any {
	return []any{"node_modules", filepath.Join(r.cwd, "node_modules")}
}

func (r *Resolver) defaultAliases(name string) map[string]any {
	aliases := map[string]any{"src": filepath.Join(r.cwd, "src")}
	if name != "" {
		aliases[name] = r.cwd
	}
	return aliases
}

func (r *Resolver) resolveLoader(user map[string]any, name string) map[string]any {
	out, _ := jsvalue.AsMap(jsvalue.Clone(user["resolveLoader"]))
	if out == nil {
		out = map[string]any{}
	}
	out["modules"] = MergeSequence(jsvalue.AsSlice(deref(user, "resolveLoader", "modules")), r.defaultModules())
	out["alias"] = MergeMapping(r.defaultAliases(name), mapAt(user, "resolveLoader", "alias"))
	return out
}

// FilterPlugins keeps the plugins whose constructor is allow-listed. Other
// plugins are dropped.
func FilterPlugins(plugins []any) []any {
	out := []any{}
	for _, p := range plugins {
		inst, ok := p.(*jsvalue.Instance)
		if !ok || !pluginAllowList.MatchString(inst.Constructor) {
			continue
		}
		out = append(out, inst)
	}
	return out
}

// MergeSequence keeps user entries in order and appends defaults that are
// not already present.
func MergeSequence(user, defaults []any) []any {
	out := make([]any, 0, len(user)+len(defaults))
	seen := map[string]bool{}
	for _, list := range [][]any{user, defaults} {
		for _, v := range list {
			if s, ok := v.(string); ok {
				if seen[s] {
					continue
				}
				seen[s] = true
			}
			out = append(out, v)
		}
	}
	return out
}

// MergeMapping applies user keys over defaults.
func MergeMapping(defaults, user map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(user))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range user {
		out[k] = v
	}
	return out
}

func deref(m map[string]any, path ...string) any {
	var cur any = m
	for _, key := range path {
		obj, ok := jsvalue.AsMap(cur)
		if !ok {
			return nil
		}
		cur = obj[key]
	}
	return cur
}

func mapAt(m map[string]any, path ...string) map[string]any {
	obj, _ := jsvalue.AsMap(deref(m, path...))
	return obj
}

func withoutKeys(m map[string]any, keys ...string) map[string]any {
	if m == nil {
		return nil
	}
	for _, k := range keys {
		delete(m, k)
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
