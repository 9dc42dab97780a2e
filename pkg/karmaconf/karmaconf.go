// Package karmaconf renders a RunnerConfig as a configuration file the
// runner engine can load.
//
// The file re-loads the user's bundler config at the top so that plugin
// instances and functions referenced by the generated config are the live
// values, not copies.
package karmaconf

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

//go:embed preamble.js
var preamble string

// CacheDir is where generated files are written, relative to the project.
var CacheDir = filepath.Join("node_modules", ".cache", "karmatic")

const header = "// Generated by karmatic. Changes are overwritten on every run.\n"

// Value returns the runner configuration object. Plugin names are resolved
// to installed paths when finder locates them.
func Value(rc *types.RunnerConfig, finder pkgresolve.Finder) map[string]any {
	out := map[string]any{
		"basePath":        rc.BasePath,
		"files":           files(rc.Files),
		"preprocessors":   rc.Preprocessors,
		"browsers":        rc.Browsers,
		"customLaunchers": launchers(rc.CustomLaunchers),
		"reporters":       rc.Reporters,
		"plugins":         plugins(rc.Plugins, finder),
		"frameworks":      rc.Frameworks,
		"singleRun":       rc.SingleRun,
		"autoWatch":       rc.AutoWatch,
		"logLevel":        rc.LogLevel,
		"colors":          rc.Colors,
		"client": map[string]any{
			"captureConsole": rc.Client.CaptureConsole,
			"jasmine":        map[string]any{"random": rc.Client.JasmineRandom},
		},
	}
	if rc.SauceLabs != nil {
		sauce := map[string]any{}
		if rc.SauceLabs.TestName != "" {
			sauce["testName"] = rc.SauceLabs.TestName
		}
		out["sauceLabs"] = sauce
	}
	if len(rc.CoverageReports) > 0 {
		reports := make([]any, len(rc.CoverageReports))
		for i, r := range rc.CoverageReports {
			entry := map[string]any{"type": r.Type}
			if r.Subdir != "" {
				entry["subdir"] = r.Subdir
			}
			if r.File != "" {
				entry["file"] = r.File
			}
			reports[i] = entry
		}
		out["coverageReporter"] = map[string]any{"reporters": reports}
	}

	switch stage := rc.Bundler.(type) {
	case *types.WebpackStage:
		out["webpack"] = stage
		if stage.Middleware != nil {
			out["webpackMiddleware"] = stage.Middleware
		}
	case *types.RollupStage:
		out["rollupPreprocessor"] = stage
	}
	return out
}

func files(patterns []types.FilePattern) []any {
	out := make([]any, len(patterns))
	for i, f := range patterns {
		out[i] = map[string]any{
			"pattern":  f.Pattern,
			"watched":  f.Watched,
			"served":   f.Served,
			"included": f.Included,
		}
	}
	return out
}

func launchers(specs map[string]types.LauncherSpec) map[string]any {
	out := make(map[string]any, len(specs))
	for name, spec := range specs {
		entry := map[string]any{"base": spec.Base}
		if len(spec.Flags) > 0 {
			entry["flags"] = spec.Flags
		}
		if spec.ChromeDataDir != "" {
			entry["chromeDataDir"] = spec.ChromeDataDir
		}
		if spec.BrowserName != "" {
			entry["browserName"] = spec.BrowserName
		}
		if spec.Version != "" {
			entry["version"] = spec.Version
		}
		if spec.Platform != "" {
			entry["platform"] = spec.Platform
		}
		out[name] = entry
	}
	return out
}

func plugins(names []string, finder pkgresolve.Finder) []any {
	out := make([]any, len(names))
	for i, name := range names {
		if finder != nil {
			out[i] = pkgresolve.PathOr(finder, name)
		} else {
			out[i] = name
		}
	}
	return out
}

// userConfigArgs are the factory arguments each bundler family passes.
func userConfigArgs(family types.BundlerFamily) []any {
	if family == types.FamilyWebpack {
		return []any{
			map[string]any{"karmatic": true},
			map[string]any{"mode": "development", "karmatic": true},
		}
	}
	return []any{map[string]any{"karmatic": true}}
}

// Render produces the configuration file source.
func Render(rc *types.RunnerConfig, finder pkgresolve.Finder) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(preamble)
	b.WriteString("\nmodule.exports = async function (config) {\n")

	if rc.Bundler != nil && rc.Bundler.UserConfig() != "" {
		fmt.Fprintf(&b, "  const %s = await __karmaticUserConfig(%s, %s);\n",
			jsconfig.RootRef,
			jsvalue.Emit(rc.Bundler.UserConfig()),
			jsvalue.EmitIndent(userConfigArgs(rc.Bundler.Family()), 1))
	}

	fmt.Fprintf(&b, "  config.set(%s);\n};\n", jsvalue.EmitIndent(Value(rc, finder), 1))
	return b.String()
}

// Write renders rc into the project's cache directory under a unique name
// and returns the file path.
func Write(fs afero.Fs, rc *types.RunnerConfig, finder pkgresolve.Finder) (string, error) {
	logger := logging.GetLogger("karmaconf")

	dir := filepath.Join(rc.BasePath, CacheDir)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "creating %s", dir)
	}
	path := filepath.Join(dir, fmt.Sprintf("karma.%s.conf.js", uuid.NewString()))
	if err := afero.WriteFile(fs, path, []byte(Render(rc, finder)), 0644); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "writing %s", path)
	}
	logger.Debug().Str("path", path).Msg("Wrote runner config")
	return path, nil
}

// Remove deletes a file created by Write. A missing file is not an error.
func Remove(fs afero.Fs, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileWrite, "removing %s", path)
	}
	return nil
}
