package rollup

import (
	"context"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/babel"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/testutil"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunnerConfig() *types.RunnerConfig {
	return &types.RunnerConfig{
		Files:         []types.FilePattern{{Pattern: "**/*.test.js", Watched: true, Served: true, Included: true}},
		Preprocessors: map[string][]string{"**/*.test.js": {"sourcemap"}},
	}
}

func newResolver(p *testutil.Project) (*Resolver, *[]string) {
	var warnings []string
	r := New(p.Finder(), p.Loader())
	r.Warn = func(msg string) { warnings = append(warnings, msg) }
	return r, &warnings
}

func TestCandidates(t *testing.T) {
	m := &manifest.Manifest{Scripts: []manifest.Script{
		{Name: "build", Command: "rollup -c build/rollup.custom.js"},
	}}

	assert.Equal(t,
		[]string{"build/rollup.custom.js", "rollup.config.mjs", "rollup.config.cjs", "rollup.config.js"},
		Candidates(m, types.Options{}))
	assert.Equal(t,
		[]string{"explicit.js", "build/rollup.custom.js", "rollup.config.mjs", "rollup.config.cjs", "rollup.config.js"},
		Candidates(m, types.Options{RollupConfig: "explicit.js"}))
}

func TestResolveWithoutRollup(t *testing.T) {
	p := testutil.NewProject(t)
	r, _ := newResolver(p)

	err := r.Resolve(context.Background(), newRunnerConfig(), nil, types.Options{})
	assert.ErrorIs(t, err, pkgresolve.ErrNotFound)
}

func TestResolveDefaultStage(t *testing.T) {
	p := testutil.NewProject(t)
	p.AddManifest(t, "widget", nil)
	p.InstallPackage(t, "rollup", "3.29.0")
	commonjs := p.InstallPackage(t, "@rollup/plugin-commonjs", "25.0.0")
	babelPlugin := p.InstallPackage(t, "@rollup/plugin-babel", "6.0.0")
	r, _ := newResolver(p)

	rc := newRunnerConfig()
	require.NoError(t, r.Resolve(context.Background(), rc, p.Manifest(t), types.Options{}))

	stage, ok := rc.Bundler.(*types.RollupStage)
	require.True(t, ok)
	assert.False(t, rc.Files[0].Watched)
	assert.Equal(t, []string{"rollup", "sourcemap"}, rc.Preprocessors["**/*.test.js"])
	assert.Contains(t, rc.Plugins, "karma-rollup-preprocessor")

	require.Len(t, stage.Plugins, 2, "node-resolve is not installed")
	assert.Equal(t, jsvalue.ModuleCall{Module: commonjs + "/index.js"}, stage.Plugins[0])
	transform := stage.Plugins[1].(jsvalue.ModuleCall)
	assert.Equal(t, babelPlugin+"/index.js", transform.Module)
	assert.Equal(t, map[string]any{
		"format":    "iife",
		"name":      "widget-karmatic-tests",
		"sourcemap": "inline",
	}, stage.Output)
}

func TestResolveUserConfig(t *testing.T) {
	p := testutil.NewProject(t)
	p.AddManifest(t, "widget", map[string]string{"build": "rollup -c build/rollup.custom.js"})
	p.InstallPackage(t, "rollup", "3.29.0")
	p.AddFile(t, "rollup.config.js", `module.exports = { input: "ignored.js" };`)
	p.AddFile(t, "build/rollup.custom.js", `
const commonjs = require("@rollup/plugin-commonjs");
module.exports = (args) => ({
	input: "src/index.js",
	treeshake: args.karmatic,
	plugins: [commonjs(), false],
	output: { format: "es" },
});`)
	r, _ := newResolver(p)

	rc := newRunnerConfig()
	require.NoError(t, r.Resolve(context.Background(), rc, p.Manifest(t), types.Options{Coverage: true}))
	stage := rc.Bundler.(*types.RollupStage)

	assert.Equal(t, p.Path("build/rollup.custom.js"), stage.UserConfigPath)
	assert.Equal(t, map[string]any{"input": "src/index.js", "treeshake": true}, stage.Extra)
	assert.Equal(t, map[string]any{"format": "es"}, stage.Output)

	require.Len(t, stage.Plugins, 2)
	assert.Equal(t, jsvalue.Raw{Code: "userConfig.plugins[0]"}, stage.Plugins[0])
	transform := stage.Plugins[1].(jsvalue.ModuleCall)
	cfg := transform.Args[0].(map[string]any)
	assert.Contains(t, cfg["plugins"], babel.PluginIstanbul)
}

func TestResolveArrayConfigWarns(t *testing.T) {
	p := testutil.NewProject(t)
	p.InstallPackage(t, "rollup", "3.29.0")
	p.AddFile(t, "rollup.config.mjs", `export default [{ input: "a.js" }, { input: "b.js" }];`)
	r, warnings := newResolver(p)

	rc := newRunnerConfig()
	require.NoError(t, r.Resolve(context.Background(), rc, nil, types.Options{}))

	stage := rc.Bundler.(*types.RollupStage)
	assert.Equal(t, map[string]any{"input": "a.js"}, stage.Extra)
	require.Len(t, *warnings, 1)
	assert.Contains(t, (*warnings)[0], "first entry")
}

func TestResolveAsyncConfigFallsBack(t *testing.T) {
	p := testutil.NewProject(t)
	p.AddManifest(t, "widget", nil)
	p.InstallPackage(t, "rollup", "3.29.0")
	p.AddFile(t, "rollup.config.js", `module.exports = Promise.resolve({ input: "a.js" });`)
	r, warnings := newResolver(p)

	rc := newRunnerConfig()
	require.NoError(t, r.Resolve(context.Background(), rc, p.Manifest(t), types.Options{}))

	stage := rc.Bundler.(*types.RollupStage)
	assert.Empty(t, stage.UserConfigPath)
	assert.Equal(t, "widget-karmatic-tests", stage.Output["name"])
	require.Len(t, *warnings, 1)
	assert.Contains(t, (*warnings)[0], "asynchronous rollup configs")
}

func TestResolveBrokenConfigIsSkipped(t *testing.T) {
	p := testutil.NewProject(t)
	p.InstallPackage(t, "rollup", "3.29.0")
	p.AddFile(t, "rollup.config.js", `module.exports = { input: "good.js" };`)
	p.AddFile(t, "rollup.config.cjs", `require("./missing-local-file");`)
	r, _ := newResolver(p)

	rc := newRunnerConfig()
	require.NoError(t, r.Resolve(context.Background(), rc, nil, types.Options{}))
	stage := rc.Bundler.(*types.RollupStage)
	assert.Equal(t, p.Path("rollup.config.js"), stage.UserConfigPath)
}

func TestAttachAfterWebpackFails(t *testing.T) {
	p := testutil.NewProject(t)
	p.InstallPackage(t, "rollup", "3.29.0")
	r, _ := newResolver(p)

	rc := newRunnerConfig()
	rc.Bundler = &types.WebpackStage{}
	assert.Error(t, r.Resolve(context.Background(), rc, nil, types.Options{}))
}
