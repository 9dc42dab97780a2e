package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectInstallPackage(t *testing.T) {
	p := NewProject(t)
	p.AddManifest(t, "demo", map[string]string{"test": "karmatic"})
	p.InstallPackageWithBin(t, "karma", "6.4.0", map[string]string{"karma": "bin/karma"})

	info, err := p.Finder().Lookup("karma")
	require.NoError(t, err)
	assert.Equal(t, "6.4.0", info.Version)

	bin, ok := info.BinPath("karma")
	require.True(t, ok)
	assert.Equal(t, "/project/node_modules/karma/bin/karma", bin)

	m := p.Manifest(t)
	assert.Equal(t, "demo", m.Name)
	cmd, ok := m.Script("test")
	require.True(t, ok)
	assert.Equal(t, "karmatic", cmd)
}
