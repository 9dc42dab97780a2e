package karmaconf

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/testutil"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConfig() *types.RunnerConfig {
	return &types.RunnerConfig{
		BasePath:      "/project",
		Files:         []types.FilePattern{{Pattern: "*.test.js", Watched: true, Served: true, Included: true}},
		Preprocessors: map[string][]string{"*.test.js": {"webpack", "sourcemap"}},
		Browsers:      []string{"KarmaticChromeHeadless"},
		CustomLaunchers: map[string]types.LauncherSpec{
			"KarmaticChromeHeadless": {Base: "ChromeHeadless", Flags: []string{"--no-sandbox"}},
		},
		Reporters:       []string{"spec", "coverage"},
		Plugins:         []string{"karma-jasmine", "karma-webpack"},
		Frameworks:      []string{"jasmine"},
		SingleRun:       true,
		LogLevel:        "ERROR",
		Colors:          true,
		Client:          types.ClientConfig{CaptureConsole: true},
		CoverageReports: []types.CoverageReport{{Type: "html"}, {Type: "lcovonly", Subdir: ".", File: "lcov.info"}},
		Bundler: &types.WebpackStage{
			Plugins:        []any{&jsvalue.Instance{Constructor: "HtmlWebpackPlugin", Ref: "userConfig.plugins[0]"}},
			Mode:           "development",
			Devtool:        "inline-source-map",
			Target:         "web",
			Middleware:     map[string]any{"stats": "errors-only"},
			UserConfigPath: "/project/webpack.config.js",
		},
	}
}

func TestValue(t *testing.T) {
	p := testutil.NewProject(t)
	dir := p.InstallPackage(t, "karma-jasmine", "5.1.0")

	value := Value(sampleConfig(), p.Finder())

	assert.Equal(t, []any{dir, "karma-webpack"}, value["plugins"])
	assert.Equal(t, map[string]any{
		"reporters": []any{
			map[string]any{"type": "html"},
			map[string]any{"type": "lcovonly", "subdir": ".", "file": "lcov.info"},
		},
	}, value["coverageReporter"])
	assert.Equal(t, map[string]any{"stats": "errors-only"}, value["webpackMiddleware"])
	assert.NotContains(t, value, "sauceLabs")
	assert.NotContains(t, value, "rollupPreprocessor")
	assert.Equal(t, map[string]any{
		"captureConsole": true,
		"jasmine":        map[string]any{"random": false},
	}, value["client"])
}

func TestRender(t *testing.T) {
	source := Render(sampleConfig(), nil)

	assert.True(t, strings.HasPrefix(source, header))
	assert.Contains(t, source, "function __karmaticLoad(id)")
	assert.Contains(t, source, `const userConfig = await __karmaticUserConfig("/project/webpack.config.js", [`)
	assert.Contains(t, source, `mode: "development"`)
	assert.Contains(t, source, "userConfig.plugins[0]")
	assert.Contains(t, source, `basePath: "/project"`)
	assert.Contains(t, source, `"*.test.js": [`)
	assert.Contains(t, source, "  config.set({\n")
	assert.True(t, strings.HasSuffix(source, "});\n};\n"))
}

func TestRenderWithoutUserConfig(t *testing.T) {
	rc := sampleConfig()
	rc.Bundler = &types.RollupStage{Output: map[string]any{"format": "iife"}}

	source := Render(rc, nil)
	assert.NotContains(t, source, "const userConfig")
	assert.Contains(t, source, "rollupPreprocessor: {")
}

func TestWriteAndRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	rc := sampleConfig()

	path, err := Write(fs, rc, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", CacheDir), filepath.Dir(path))
	assert.Regexp(t, `^karma\.[0-9a-f-]{36}\.conf\.js$`, filepath.Base(path))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, Render(rc, nil), string(data))

	require.NoError(t, Remove(fs, path))
	require.NoError(t, Remove(fs, path))
	exists, err := afero.Exists(fs, path)
	require.NoError(t, err)
	assert.False(t, exists)
}
