package types

import (
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
)

// FilePattern is one entry of the runner's file list.
type FilePattern struct {
	Pattern  string
	Watched  bool
	Served   bool
	Included bool
}

// LauncherSpec describes a custom browser launcher.
type LauncherSpec struct {
	Base          string
	Flags         []string
	ChromeDataDir string
	BrowserName   string
	Version       string
	Platform      string
}

// CoverageReport is one coverage output format.
type CoverageReport struct {
	Type   string
	Subdir string
	File   string
}

// ClientConfig is passed through to the in-browser test framework.
type ClientConfig struct {
	CaptureConsole bool
	JasmineRandom  bool
}

// SauceLabsConfig configures remote browsers.
type SauceLabsConfig struct {
	TestName string
}

// RunnerConfig is the full launch configuration for the runner engine. It
// is built once per invocation and extended in place by one bundler
// resolver.
type RunnerConfig struct {
	BasePath        string
	Files           []FilePattern
	Preprocessors   map[string][]string
	Browsers        []string
	CustomLaunchers map[string]LauncherSpec
	Reporters       []string
	Plugins         []string
	Frameworks      []string
	SingleRun       bool
	AutoWatch       bool
	LogLevel        string
	Colors          bool
	Client          ClientConfig
	SauceLabs       *SauceLabsConfig
	CoverageReports []CoverageReport

	Bundler BundleStage
}

// AttachStage sets the bundle stage. A run has exactly one bundler family:
// attaching a stage of a different family fails, the same family replaces
// the previous stage.
func (rc *RunnerConfig) AttachStage(stage BundleStage) error {
	if rc.Bundler != nil && rc.Bundler.Family() != stage.Family() {
		return errors.Newf(errors.ErrBundlerLocked,
			"bundler already set to %s, cannot switch to %s", rc.Bundler.Family(), stage.Family()).
			WithDetail("current", string(rc.Bundler.Family())).
			WithDetail("requested", string(stage.Family()))
	}
	rc.Bundler = stage
	rc.AddPlugin(stage.Plugin())
	rc.PrependPreprocessor(stage.Preprocessor())
	return nil
}

// PrependPreprocessor puts name at the front of every preprocessor list
// that does not already contain it.
func (rc *RunnerConfig) PrependPreprocessor(name string) {
	for pattern, list := range rc.Preprocessors {
		if contains(list, name) {
			continue
		}
		rc.Preprocessors[pattern] = append([]string{name}, list...)
	}
}

// AddPlugin appends a plugin unless it is already listed.
func (rc *RunnerConfig) AddPlugin(plugin string) {
	if !contains(rc.Plugins, plugin) {
		rc.Plugins = append(rc.Plugins, plugin)
	}
}

// SetWatched updates the watched flag of every file entry.
func (rc *RunnerConfig) SetWatched(watched bool) {
	for i := range rc.Files {
		rc.Files[i].Watched = watched
	}
}

// Validate checks that every preprocessor key is covered by a file entry.
func (rc *RunnerConfig) Validate() error {
	for key := range rc.Preprocessors {
		if !rc.covers(key) {
			return errors.Newf(errors.ErrInternal, "preprocessor pattern %q has no matching file entry", key)
		}
	}
	return nil
}

func (rc *RunnerConfig) covers(key string) bool {
	for _, f := range rc.Files {
		if f.Pattern == key || filesystem.MatchGlob(key, f.Pattern) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
