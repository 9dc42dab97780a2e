package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/testutil"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	p := testutil.NewProject(t)

	res, err := Load(p.FS, Request{Dir: p.Dir, Environ: []string{}})
	require.NoError(t, err)

	want := types.DefaultOptions()
	want.Files = []string{}
	want.Browsers = []string{}
	assert.Equal(t, want, res.Options)
	assert.Empty(t, res.ProjectFile)
	assert.Equal(t, LayerDefaults, res.Origin("headless"))
}

func TestLoadLayers(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		environ []string
		flags   map[string]interface{}
		check   func(t *testing.T, res *Result)
	}{
		{
			name:  "toml project file",
			files: map[string]string{".karmatic.toml": "coverage = false\nbrowsers = [\"firefox\"]\n"},
			check: func(t *testing.T, res *Result) {
				assert.False(t, res.Options.Coverage)
				assert.True(t, res.Options.Headless)
				assert.Equal(t, []string{"firefox"}, res.Options.Browsers)
				assert.Equal(t, "/project/.karmatic.toml", res.ProjectFile)
				assert.Equal(t, LayerProject, res.Origin("coverage"))
			},
		},
		{
			name:  "yaml project file",
			files: map[string]string{".karmatic.yaml": "bundler: rollup\nchrome_data_dir: .chrome\n"},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, types.BundlerRollup, res.Options.Bundler)
				assert.Equal(t, ".chrome", res.Options.ChromeDataDir)
			},
		},
		{
			name: "first project file wins",
			files: map[string]string{
				".karmatic.toml": "pragma = \"React.createElement\"\n",
				"karmatic.toml":  "pragma = \"jsx\"\n",
			},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, "React.createElement", res.Options.Pragma)
			},
		},
		{
			name:    "env overrides project file",
			files:   map[string]string{".karmatic.toml": "headless = true\n"},
			environ: []string{"KARMATIC_HEADLESS=false", "KARMATIC_BROWSERS=chrome, firefox,", "OTHER=1"},
			check: func(t *testing.T, res *Result) {
				assert.False(t, res.Options.Headless)
				assert.Equal(t, []string{"chrome", "firefox"}, res.Options.Browsers)
				assert.Equal(t, LayerEnv, res.Origin("headless"))
			},
		},
		{
			name:    "flags override env",
			environ: []string{"KARMATIC_PRAGMA=jsx"},
			flags:   map[string]interface{}{"pragma": "h2", "files": []string{"src/**/*.spec.js"}},
			check: func(t *testing.T, res *Result) {
				assert.Equal(t, "h2", res.Options.Pragma)
				assert.Equal(t, []string{"src/**/*.spec.js"}, res.Options.Files)
				assert.Equal(t, LayerFlags, res.Origin("pragma"))
				assert.Equal(t, LayerDefaults, res.Origin("bundler"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewProject(t)
			for name, content := range tt.files {
				p.AddFile(t, name, content)
			}
			environ := tt.environ
			if environ == nil {
				environ = []string{}
			}

			res, err := Load(p.FS, Request{Dir: p.Dir, Environ: environ, Flags: tt.flags})
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci.toml")
	require.NoError(t, os.WriteFile(path, []byte("downlevel = true\n"), 0644))

	p := testutil.NewProject(t)
	p.AddFile(t, ".karmatic.toml", "downlevel = false\n")

	res, err := Load(p.FS, Request{Dir: p.Dir, File: path, Environ: []string{}})
	require.NoError(t, err)
	assert.True(t, res.Options.Downlevel)
	assert.Equal(t, path, res.ProjectFile)
	assert.Equal(t, LayerFile, res.Origin("downlevel"))
}

func TestLoadProcessEnvironment(t *testing.T) {
	t.Setenv("KARMATIC_DOWNLEVEL", "true")
	p := testutil.NewProject(t)

	res, err := Load(p.FS, Request{Dir: p.Dir})
	require.NoError(t, err)
	assert.True(t, res.Options.Downlevel)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		flags map[string]interface{}
	}{
		{name: "malformed toml", file: ".karmatic.toml", body: "headless = = true"},
		{name: "malformed yaml", file: ".karmatic.yaml", body: "files: [unclosed"},
		{name: "unknown bundler", flags: map[string]interface{}{"bundler": "parcel"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testutil.NewProject(t)
			if tt.file != "" {
				p.AddFile(t, tt.file, tt.body)
			}
			_, err := Load(p.FS, Request{Dir: p.Dir, Flags: tt.flags, Environ: []string{}})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrConfigInvalid))
			assert.Equal(t, errors.ExitConfigInvalid, errors.ExitCode(err))
		})
	}
}

func TestResultKeys(t *testing.T) {
	p := testutil.NewProject(t)
	res, err := Load(p.FS, Request{Dir: p.Dir, Environ: []string{}})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"browsers", "bundler", "chrome_data_dir", "coverage", "downlevel", "files",
		"headless", "pragma", "rollup_config", "webpack_config",
	}, res.Keys())
}
