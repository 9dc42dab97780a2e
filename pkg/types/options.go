package types

// Bundler selection values for Options.Bundler.
const (
	BundlerAuto    = "auto"
	BundlerWebpack = "webpack"
	BundlerRollup  = "rollup"
)

// DefaultPragma is the JSX pragma used when none is configured.
const DefaultPragma = "h"

// Options are the user-facing inputs to a run.
type Options struct {
	Cwd           string   `koanf:"cwd" yaml:"cwd,omitempty" json:"cwd,omitempty" toml:"-"`
	Files         []string `koanf:"files" yaml:"files,omitempty" json:"files,omitempty" toml:"files,omitempty"`
	Browsers      []string `koanf:"browsers" yaml:"browsers,omitempty" json:"browsers,omitempty" toml:"browsers,omitempty"`
	Headless      bool     `koanf:"headless" yaml:"headless" json:"headless" toml:"headless"`
	Coverage      bool     `koanf:"coverage" yaml:"coverage" json:"coverage" toml:"coverage"`
	Downlevel     bool     `koanf:"downlevel" yaml:"downlevel" json:"downlevel" toml:"downlevel"`
	Watch         bool     `koanf:"watch" yaml:"watch" json:"watch" toml:"-"`
	ChromeDataDir string   `koanf:"chrome_data_dir" yaml:"chromeDataDir,omitempty" json:"chromeDataDir,omitempty" toml:"chrome_data_dir,omitempty"`
	Pragma        string   `koanf:"pragma" yaml:"pragma,omitempty" json:"pragma,omitempty" toml:"pragma,omitempty"`
	Bundler       string   `koanf:"bundler" yaml:"bundler,omitempty" json:"bundler,omitempty" toml:"bundler,omitempty"`
	WebpackConfig string   `koanf:"webpack_config" yaml:"webpackConfig,omitempty" json:"webpackConfig,omitempty" toml:"webpack_config,omitempty"`
	RollupConfig  string   `koanf:"rollup_config" yaml:"rollupConfig,omitempty" json:"rollupConfig,omitempty" toml:"rollup_config,omitempty"`
}

// DefaultOptions mirrors the embedded configuration defaults.
func DefaultOptions() Options {
	return Options{
		Headless: true,
		Coverage: true,
		Pragma:   DefaultPragma,
		Bundler:  BundlerAuto,
	}
}

// EffectivePragma returns the configured pragma or the default.
func (o Options) EffectivePragma() string {
	if o.Pragma == "" {
		return DefaultPragma
	}
	return o.Pragma
}
