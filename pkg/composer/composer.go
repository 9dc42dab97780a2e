// Package composer assembles the runner configuration for one invocation:
// test file patterns, browsers and launchers, reporters, and the bundling
// stage of whichever bundler family the project provides.
package composer

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/browsers"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/rollup"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/arthur-debert/karmatic/pkg/webpack"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Runner plugins that every configuration loads.
var basePlugins = []string{
	"karma-jasmine",
	"karma-spec-reporter",
	"karma-sourcemap-loader",
}

const (
	pluginCoverage = "karma-coverage"
	expectPackage  = "expect"
	expectBuild    = "build-es5/index.js"
)

// Resolver attaches a bundling stage. Both bundler families implement it.
type Resolver interface {
	Probe() (pkgresolve.PackageInfo, error)
	Resolve(ctx context.Context, rc *types.RunnerConfig, m *manifest.Manifest, opts types.Options) error
}

// Composer builds runner configurations for a project directory.
type Composer struct {
	fs      afero.Fs
	cwd     string
	finder  pkgresolve.Finder
	webpack Resolver
	rollup  Resolver
	env     browsers.EnvLookup
	logger  zerolog.Logger
}

// Option customises a Composer.
type Option func(*Composer)

// WithEnv replaces the environment used for credential checks.
func WithEnv(lookup browsers.EnvLookup) Option {
	return func(c *Composer) { c.env = lookup }
}

// WithWarnings routes user-facing resolver warnings to fn.
func WithWarnings(fn func(string)) Option {
	return func(c *Composer) {
		if r, ok := c.rollup.(*rollup.Resolver); ok {
			r.Warn = fn
		}
	}
}

// WithResolvers replaces the bundler resolvers.
func WithResolvers(webpackResolver, rollupResolver Resolver) Option {
	return func(c *Composer) {
		c.webpack = webpackResolver
		c.rollup = rollupResolver
	}
}

// New creates a composer for cwd.
func New(fs afero.Fs, cwd string, options ...Option) *Composer {
	finder := pkgresolve.New(fs, cwd)
	loader := jsconfig.NewLoader(fs, cwd, finder)
	c := &Composer{
		fs:      fs,
		cwd:     cwd,
		finder:  finder,
		webpack: webpack.New(fs, cwd, finder, loader),
		rollup:  rollup.New(finder, loader),
		logger:  logging.GetLogger("composer"),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Finder exposes the package resolver used for capability probes.
func (c *Composer) Finder() pkgresolve.Finder {
	return c.finder
}

// Compose builds the runner configuration. Credential and bundler
// failures abort before any configuration is returned.
func (c *Composer) Compose(ctx context.Context, opts types.Options) (*types.RunnerConfig, error) {
	done := logging.LogOperationStart(c.logger, "compose")
	defer done()

	opts.Cwd = c.cwd

	selection, err := browsers.Select(opts, c.env)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(c.fs, c.cwd)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Ignoring unreadable package.json")
		m = &manifest.Manifest{Dir: c.cwd}
	}

	root, err := RepoRoot(c.fs, c.cwd)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "listing %s", c.cwd)
	}
	c.logger.Debug().Strs("root", root).Msg("Computed repository allow-list")

	rc := c.base(opts, m, selection)
	c.addFiles(rc, opts, root)

	if err := c.attachBundler(ctx, rc, m, opts); err != nil {
		return nil, err
	}
	if err := rc.Validate(); err != nil {
		return nil, err
	}
	return rc, nil
}

func (c *Composer) base(opts types.Options, m *manifest.Manifest, sel *browsers.Selection) *types.RunnerConfig {
	rc := &types.RunnerConfig{
		BasePath:        c.cwd,
		Preprocessors:   map[string][]string{},
		Browsers:        sel.Browsers,
		CustomLaunchers: sel.Launchers,
		Frameworks:      []string{"jasmine"},
		SingleRun:       !opts.Watch,
		AutoWatch:       opts.Watch,
		LogLevel:        "ERROR",
		Colors:          true,
		Client:          types.ClientConfig{CaptureConsole: true, JasmineRandom: false},
	}

	rc.Plugins = append(rc.Plugins, sel.Plugins...)
	for _, p := range basePlugins {
		rc.AddPlugin(p)
	}

	reporter := "spec"
	if opts.Watch {
		reporter = "min"
	}
	rc.Reporters = []string{reporter}

	if opts.Coverage {
		rc.AddPlugin(pluginCoverage)
		rc.Reporters = append(rc.Reporters, "coverage")
		rc.CoverageReports = []types.CoverageReport{
			{Type: "text-summary"},
			{Type: "html"},
			{Type: "lcovonly", Subdir: ".", File: "lcov.info"},
		}
	}
	if sel.SauceLabs {
		rc.Reporters = append(rc.Reporters, "saucelabs")
		rc.SauceLabs = &types.SauceLabsConfig{TestName: m.Name}
	}
	return rc
}

func (c *Composer) addFiles(rc *types.RunnerConfig, opts types.Options, root []string) {
	if expect, ok := c.expectFile(); ok {
		rc.Files = append(rc.Files, types.FilePattern{Pattern: expect, Watched: false, Served: true, Included: true})
	}

	preprocessors := []string{"sourcemap"}
	if opts.Coverage {
		preprocessors = append(preprocessors, "coverage")
	}

	for _, pattern := range NormalizeFiles(opts.Files) {
		for _, expanded := range ExpandPattern(pattern, root) {
			rc.Files = append(rc.Files, types.FilePattern{Pattern: expanded, Watched: true, Served: true, Included: true})
			rc.Preprocessors[expanded] = append([]string{}, preprocessors...)
		}
	}
}

// expectFile is the browser build of the jest matcher library, when the
// project has it installed.
func (c *Composer) expectFile() (string, bool) {
	info, err := c.finder.Lookup(expectPackage)
	if err != nil {
		return "", false
	}
	path := filepath.Join(info.Dir, filepath.FromSlash(expectBuild))
	if !filesystem.IsFile(c.fs, path) {
		c.logger.Debug().Str("path", path).Msg("expect is installed without a browser build")
		return "", false
	}
	return path, true
}

type bundler struct {
	name     string
	resolver Resolver
}

func (c *Composer) attachBundler(ctx context.Context, rc *types.RunnerConfig, m *manifest.Manifest, opts types.Options) error {
	webpackFamily := bundler{webpack.PackageName, c.webpack}
	rollupFamily := bundler{rollup.PackageName, c.rollup}

	var order []bundler
	switch opts.Bundler {
	case types.BundlerWebpack:
		order = []bundler{webpackFamily}
	case types.BundlerRollup:
		order = []bundler{rollupFamily}
	case "", types.BundlerAuto:
		order = []bundler{webpackFamily, rollupFamily}
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown bundler %q, expected auto, webpack or rollup", opts.Bundler)
	}

	var tried []string
	for _, candidate := range order {
		info, err := candidate.resolver.Probe()
		if err != nil {
			tried = append(tried, candidate.name)
			continue
		}
		c.logger.Info().Str("bundler", candidate.name).Str("version", info.Version).Msg("Selected bundler")
		return candidate.resolver.Resolve(ctx, rc, m, opts)
	}
	return errors.Newf(errors.ErrNoBundler, "no bundler found, install one of: %s", strings.Join(tried, ", ")).
		WithDetail("tried", tried)
}
