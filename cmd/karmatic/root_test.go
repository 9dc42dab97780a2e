package karmatic

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arthur-debert/karmatic/internal/version"
	"github.com/arthur-debert/karmatic/pkg/engine"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = os.Setenv(logging.EnvLogFile, "-")
	os.Exit(m.Run())
}

// useProject points the commands at p and isolates them from the process
// environment.
func useProject(t *testing.T, p *testutil.Project) {
	t.Helper()

	prevDir, prevFs, prevEnv, prevEngine := workingDir, newFs, environ, engineOpts
	t.Cleanup(func() {
		workingDir, newFs, environ, engineOpts = prevDir, prevFs, prevEnv, prevEngine
	})
	workingDir = func() (string, error) { return p.Dir, nil }
	newFs = func() afero.Fs { return p.FS }
	environ = []string{}
}

func webpackProject(t *testing.T) *testutil.Project {
	t.Helper()

	p := testutil.NewProject(t)
	p.AddManifest(t, "demo", nil)
	p.AddDir(t, "src")
	p.InstallPackage(t, "webpack", "5.88.0")
	return p
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestChangedFlags(t *testing.T) {
	root := NewRootCmd()
	require.NoError(t, root.ParseFlags([]string{
		"--browsers", "firefox,chrome",
		"--headless=false",
		"--chrome-data-dir", ".chrome",
		"-v",
	}))

	assert.Equal(t, map[string]interface{}{
		"browsers":        []string{"firefox", "chrome"},
		"headless":        false,
		"chrome_data_dir": ".chrome",
	}, changedFlags(root.Flags()))
}

func TestOptionRequestLayersOverridesBelowFlags(t *testing.T) {
	root := NewRootCmd()
	debug, _, err := root.Find([]string{"debug"})
	require.NoError(t, err)
	require.NoError(t, debug.ParseFlags([]string{"--coverage", "--files", "a.test.js", "--config", "ci.toml"}))

	req := optionRequest(debug, "/project", []string{"b.test.js"}, debugOverrides)

	assert.Equal(t, "/project", req.Dir)
	assert.Equal(t, "ci.toml", req.File)
	assert.Equal(t, map[string]interface{}{
		"watch":    true,
		"headless": false,
		"coverage": true,
		"files":    []string{"a.test.js", "b.test.js"},
	}, req.Flags)
}

func TestConfigCommandFormats(t *testing.T) {
	useProject(t, webpackProject(t))

	t.Run("js", func(t *testing.T) {
		out, _, err := execute(t, "config")
		require.NoError(t, err)
		assert.Contains(t, out, "module.exports = async function (config) {")
		assert.Contains(t, out, "KarmaticChromeHeadless")
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := execute(t, "config", "--format", "json", "--coverage=false")
		require.NoError(t, err)
		assert.Contains(t, out, `"singleRun": true`)
		assert.Contains(t, out, "\"reporters\": [\n    \"spec\"\n  ]")
		assert.NotContains(t, out, "coverageReporter")
	})

	t.Run("yaml", func(t *testing.T) {
		out, _, err := execute(t, "config", "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "frameworks:\n  - jasmine\n")
		assert.Contains(t, out, "singleRun: true\n")
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := execute(t, "config", "--format", "xml")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestConfigCommandTableShowsSources(t *testing.T) {
	p := webpackProject(t)
	p.AddFile(t, ".karmatic.toml", "browsers = [\"firefox\"]\n")
	useProject(t, p)

	out, _, err := execute(t, "config", "--format", "table", "--headless=false")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.Contains(t, findLine(lines, "browsers"), "firefox")
	assert.Contains(t, findLine(lines, "browsers"), "project")
	assert.Contains(t, findLine(lines, "headless"), "flags")
	assert.Contains(t, findLine(lines, "pragma"), "defaults")
	assert.Contains(t, out, p.Path(".karmatic.toml"))
}

func findLine(lines []string, word string) string {
	for _, line := range lines {
		if strings.Contains(line, " "+word+" ") {
			return line
		}
	}
	return ""
}

func TestConfigCommandExplain(t *testing.T) {
	useProject(t, webpackProject(t))

	out, _, err := execute(t, "config", "--explain")
	require.NoError(t, err)
	assert.Contains(t, out, "webpack")
	assert.Contains(t, out, "built-in defaults")
	assert.Contains(t, out, "KarmaticChromeHeadless")
}

func TestRunWithoutBundler(t *testing.T) {
	p := testutil.NewProject(t)
	p.AddManifest(t, "demo", nil)
	useProject(t, p)

	_, _, err := execute(t, "run")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNoBundler))

	var stderr bytes.Buffer
	assert.Equal(t, errors.ExitNoBundler, HandleError(&stderr, err))
	assert.NotEmpty(t, stderr.String())
}

// TestHelperProcess is not a real test. It stands in for the engine.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fmt.Fprint(os.Stdout, "HeadlessChrome 0.0.0 (Linux 0.0.0): Executed 2 of 2 SUCCESS\n")
	fmt.Fprint(os.Stdout, "TOTAL: 2 SUCCESS\n")
	if os.Getenv("HELPER_MODE") == "fail" {
		fmt.Fprint(os.Stdout, "1 test failed\n")
		os.Exit(1)
	}
	os.Exit(0)
}

func helperEngine(mode string) engine.Option {
	return engine.WithCommand(func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "HELPER_MODE=" + mode}
		return cmd
	})
}

func engineProject(t *testing.T, mode string) *testutil.Project {
	t.Helper()

	p := testutil.NewDiskProject(t)
	p.AddManifest(t, "demo", nil)
	p.InstallPackage(t, "webpack", "5.88.0")
	p.InstallPackageWithBin(t, "karma", "6.4.3", map[string]string{"karma": "bin/karma"})
	useProject(t, p)
	engineOpts = []engine.Option{helperEngine(mode)}
	return p
}

func TestRunStreamsEngineOutput(t *testing.T) {
	engineProject(t, "pass")

	out, _, err := execute(t, "run")
	require.NoError(t, err)
	assert.Equal(t, "Executed 2 of 2 SUCCESS\n", out)
}

func TestRootRunsByDefault(t *testing.T) {
	p := engineProject(t, "fail")

	out, _, err := execute(t, "src/**/*.test.js")
	require.Error(t, err)
	assert.Contains(t, out, "1 test failed")
	assert.Equal(t, 1, errors.ExitCode(err))

	var stderr bytes.Buffer
	assert.Equal(t, 1, HandleError(&stderr, err))
	assert.Empty(t, stderr.String())

	entries, err := afero.Glob(p.FS, filepath.Join(p.Dir, "node_modules", ".cache", "karmatic", "*.js"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInitCommand(t *testing.T) {
	p := testutil.NewDiskProject(t)
	p.InstallPackage(t, "rollup", "3.29.0")
	useProject(t, p)

	out, _, err := execute(t, "init")
	require.NoError(t, err)
	assert.Equal(t, "Created .karmatic.toml\n", out)

	data, err := os.ReadFile(p.Path(".karmatic.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "bundler = 'rollup'")

	_, _, err = execute(t, "init")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, _, err = execute(t, "init", "--force", "--pragma", "jsx")
	require.NoError(t, err)
	data, err = os.ReadFile(p.Path(".karmatic.toml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "pragma = 'jsx'")
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := execute(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "karmatic")

	_, _, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestHandleError(t *testing.T) {
	useProject(t, testutil.NewProject(t))

	tests := []struct {
		name     string
		err      error
		code     int
		contains string
	}{
		{
			name:     "handled failure prints message and hint",
			err:      errors.New(errors.ErrCredentialMissing, "sauce browsers need credentials").WithDetail(errors.DetailHint, "set SAUCE_USERNAME"),
			code:     errors.ExitCredentialMissing,
			contains: "set SAUCE_USERNAME",
		},
		{
			name: "engine failure is silent",
			err:  errors.New(errors.ErrEngineFailed, "Exit 3").WithDetail(errors.DetailExitCode, 3),
			code: 3,
		},
		{
			name:     "engine status outside the reserved range prints a diagnostic",
			err:      errors.Newf(errors.ErrEngineFailed, "Exit %d", 42).WithDetail(errors.DetailExitCode, 42),
			code:     errors.ExitFailure,
			contains: "Exit 42",
		},
		{
			name: "interrupt is silent",
			err:  errors.New(errors.ErrEngineSignal, "interrupted"),
			code: errors.ExitInterrupted,
		},
		{
			name:     "unexpected error prints diagnostic",
			err:      fmt.Errorf("boom"),
			code:     errors.ExitFailure,
			contains: "boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.code, HandleError(&buf, tt.err))
			if tt.contains == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.contains)
			}
		})
	}
}
