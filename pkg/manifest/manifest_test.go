package manifest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsScriptOrder(t *testing.T) {
	m, err := Parse([]byte(`{
		"name": "my-lib",
		"version": "1.2.3",
		"scripts": {"zeta": "a", "alpha": "b", "mid": "c", "bad": 3}
	}`))
	require.NoError(t, err)

	assert.Equal(t, "my-lib", m.Name)
	assert.True(t, m.Present)
	require.Len(t, m.Scripts, 3)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, []string{m.Scripts[0].Name, m.Scripts[1].Name, m.Scripts[2].Name})

	cmd, ok := m.Script("alpha")
	assert.True(t, ok)
	assert.Equal(t, "b", cmd)
}

func TestLoadMissingManifest(t *testing.T) {
	m, err := Load(afero.NewMemMapFs(), "/repo")
	require.NoError(t, err)
	assert.False(t, m.Present)
	assert.Equal(t, "/repo", m.Dir)
}

func TestLoadInvalidManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/repo/package.json", []byte("{"), 0644))

	_, err := Load(fs, "/repo")
	assert.Error(t, err)
}

func TestConfigPathsFromCommand(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		tool     string
		expected []string
	}{
		{"short flag", "rollup -c build/rollup.custom.js", "rollup", []string{"build/rollup.custom.js"}},
		{"long flag", "webpack --config config/webpack.js --mode production", "webpack", []string{"config/webpack.js"}},
		{"equals form", "webpack --config=config/webpack.js", "webpack", []string{"config/webpack.js"}},
		{"double quoted", `webpack --config "my dir/webpack.js"`, "webpack", []string{"my dir/webpack.js"}},
		{"single quoted", `rollup -c 'rollup.cfg.js'`, "rollup", []string{"rollup.cfg.js"}},
		{"bare flag uses default", "rollup -c -w", "rollup", nil},
		{"bare flag at end", "rollup -c", "rollup", nil},
		{"other tool", "babel -c x.js", "rollup", nil},
		{"chained command is not attributed", "rollup -c a.js && eslint -c .eslintrc", "rollup", []string{"a.js"}},
		{"tool in later segment", "npm run clean && webpack -c w.js", "webpack", []string{"w.js"}},
		{"cli binary name", "webpack-cli --config w.js", "webpack", []string{"w.js"}},
		{"path to binary", "node_modules/.bin/rollup -c r.js", "rollup", []string{"r.js"}},
		{"pipe separates", "webpack --config w.js | tee out", "webpack", []string{"w.js"}},
		{"semicolon separates", "rm -rf dist; rollup -c r.js", "rollup", []string{"r.js"}},
		{"redirect ends the command", "webpack --config w.js > build.log", "webpack", []string{"w.js"}},
		{"non-ascii before chain", "echo 'héllo wörld' && rollup -c r.js", "rollup", []string{"r.js"}},
		{"env assignment prefix", "NODE_ENV=test webpack --config w.js", "webpack", []string{"w.js"}},
		{"escaped space", `rollup -c my\ dir/r.js`, "rollup", []string{"my dir/r.js"}},
		{"quoted operator stays in word", `webpack --config "a&&b.js"`, "webpack", []string{"a&&b.js"}},
		{"unterminated quote", `rollup -c "r.js`, "rollup", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConfigPathsFromCommand(tt.command, tt.tool))
		})
	}
}

func TestConfigPathsFromScripts(t *testing.T) {
	m, err := Parse([]byte(`{"scripts": {
		"build": "rollup -c build/rollup.custom.js",
		"dev": "rollup -c build/rollup.dev.js -w",
		"lint": "eslint src"
	}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"build/rollup.custom.js", "build/rollup.dev.js"}, m.ConfigPathsFromScripts("rollup"))
	assert.Empty(t, m.ConfigPathsFromScripts("webpack"))
}
