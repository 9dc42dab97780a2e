package testutil

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/karmatic/pkg/jsconfig"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// DefaultDir is the root of in-memory projects.
const DefaultDir = "/project"

// Project is a test project on an afero filesystem.
type Project struct {
	FS  afero.Fs
	Dir string
}

// NewProject creates an empty in-memory project.
func NewProject(t *testing.T) *Project {
	t.Helper()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(DefaultDir, 0755))
	return &Project{FS: fs, Dir: DefaultDir}
}

// NewDiskProject creates a project in a temporary directory on disk.
func NewDiskProject(t *testing.T) *Project {
	t.Helper()
	return &Project{FS: afero.NewOsFs(), Dir: t.TempDir()}
}

// Path returns the absolute path of rel inside the project.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// AddFile writes a file relative to the project root.
func (p *Project) AddFile(t *testing.T, rel, content string) string {
	t.Helper()

	path := p.Path(rel)
	require.NoError(t, p.FS.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(p.FS, path, []byte(content), 0644))
	return path
}

// AddDir creates a directory relative to the project root.
func (p *Project) AddDir(t *testing.T, rel string) string {
	t.Helper()

	path := p.Path(rel)
	require.NoError(t, p.FS.MkdirAll(path, 0755))
	return path
}

// AddManifest writes package.json with the given name and scripts.
func (p *Project) AddManifest(t *testing.T, name string, scripts map[string]string) {
	t.Helper()

	data := map[string]any{"name": name, "version": "1.0.0"}
	if len(scripts) > 0 {
		data["scripts"] = scripts
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	require.NoError(t, err)
	p.AddFile(t, "package.json", string(encoded))
}

// InstallPackage adds node_modules/<name> with a manifest and an entry file.
func (p *Project) InstallPackage(t *testing.T, name, version string) string {
	t.Helper()
	return p.installPackage(t, name, version, nil)
}

// InstallPackageWithBin adds a package that declares executables.
func (p *Project) InstallPackageWithBin(t *testing.T, name, version string, bins map[string]string) string {
	t.Helper()
	return p.installPackage(t, name, version, bins)
}

func (p *Project) installPackage(t *testing.T, name, version string, bins map[string]string) string {
	t.Helper()

	dir := filepath.Join("node_modules", filepath.FromSlash(name))
	data := map[string]any{"name": name, "version": version, "main": "index.js"}
	if len(bins) > 0 {
		data["bin"] = bins
		for _, rel := range bins {
			p.AddFile(t, filepath.Join(dir, rel), "#!/usr/bin/env node\n")
		}
	}
	encoded, err := json.Marshal(data)
	require.NoError(t, err)
	p.AddFile(t, filepath.Join(dir, "package.json"), string(encoded))
	p.AddFile(t, filepath.Join(dir, "index.js"), "module.exports = {};\n")
	return p.Path(dir)
}

// Manifest loads the project's package.json.
func (p *Project) Manifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	m, err := manifest.Load(p.FS, p.Dir)
	require.NoError(t, err)
	return m
}

// Finder returns a package resolver rooted at the project.
func (p *Project) Finder() *pkgresolve.Resolver {
	return pkgresolve.New(p.FS, p.Dir)
}

// Loader returns a config loader with an empty environment.
func (p *Project) Loader() *jsconfig.Loader {
	return jsconfig.NewLoader(p.FS, p.Dir, p.Finder()).WithEnv(map[string]string{})
}
