// Package pkgresolve locates installed node packages. It is the capability
// probe the composer uses to decide which bundler family is available.
package pkgresolve

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"
)

// ErrNotFound is returned by Lookup for packages that are not installed.
var ErrNotFound = errors.New(errors.ErrNotFound, "package not installed")

// PackageInfo describes an installed package.
type PackageInfo struct {
	Name    string
	Version string
	Dir     string
	Main    string
	Bin     map[string]string
}

// Major returns the major version, or 0 when the version is not semver.
func (p PackageInfo) Major() int {
	v := canonical(p.Version)
	if v == "" {
		return 0
	}
	major := strings.TrimPrefix(semver.Major(v), "v")
	n := 0
	for _, r := range major {
		n = n*10 + int(r-'0')
	}
	return n
}

// AtLeast reports whether the package version is >= version.
func (p PackageInfo) AtLeast(version string) bool {
	v := canonical(p.Version)
	if v == "" {
		return false
	}
	return semver.Compare(v, canonical(version)) >= 0
}

func canonical(version string) string {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// EntryPath is the file require(name) would load.
func (p PackageInfo) EntryPath() string {
	main := p.Main
	if main == "" {
		main = "index.js"
	}
	return filepath.Join(p.Dir, main)
}

// BinPath returns the absolute path of an executable the package declares.
func (p PackageInfo) BinPath(name string) (string, bool) {
	rel, ok := p.Bin[name]
	if !ok {
		return "", false
	}
	return filepath.Join(p.Dir, rel), true
}

// Finder looks up packages from a directory.
type Finder interface {
	Lookup(name string) (PackageInfo, error)
}

// Resolver walks node_modules directories upward from Root, the way node
// resolves bare module names.
type Resolver struct {
	fs     afero.Fs
	root   string
	cache  map[string]PackageInfo
	logger zerolog.Logger
}

// New creates a resolver rooted at dir.
func New(fs afero.Fs, dir string) *Resolver {
	return &Resolver{
		fs:     fs,
		root:   dir,
		cache:  map[string]PackageInfo{},
		logger: logging.GetLogger("pkgresolve"),
	}
}

type packageJSON struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Main    string          `json:"main"`
	Bin     json.RawMessage `json:"bin"`
}

// Lookup finds name in the nearest node_modules directory. The only
// failure is ErrNotFound; an unreadable manifest counts as not installed.
func (r *Resolver) Lookup(name string) (PackageInfo, error) {
	if info, ok := r.cache[name]; ok {
		return info, nil
	}

	dir := r.root
	for {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		if info, ok := r.read(name, pkgDir); ok {
			r.cache[name] = info
			r.logger.Debug().
				Str("package", name).
				Str("version", info.Version).
				Str("dir", pkgDir).
				Msg("Resolved package")
			return info, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	r.logger.Debug().Str("package", name).Msg("Package not found")
	return PackageInfo{}, ErrNotFound
}

func (r *Resolver) read(name, dir string) (PackageInfo, bool) {
	data, err := afero.ReadFile(r.fs, filepath.Join(dir, "package.json"))
	if err != nil {
		return PackageInfo{}, false
	}
	var pj packageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		r.logger.Warn().Err(err).Str("dir", dir).Msg("Ignoring unreadable package manifest")
		return PackageInfo{}, false
	}
	info := PackageInfo{
		Name:    pj.Name,
		Version: pj.Version,
		Dir:     dir,
		Main:    pj.Main,
		Bin:     parseBin(name, pj.Bin),
	}
	if info.Name == "" {
		info.Name = name
	}
	return info, true
}

// bin is either a path (named after the package) or a name→path object.
func parseBin(name string, raw json.RawMessage) map[string]string {
	bins := map[string]string{}
	if len(raw) == 0 {
		return bins
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		bins[filepath.Base(name)] = single
		return bins
	}
	_ = json.Unmarshal(raw, &bins)
	return bins
}

// Installed reports whether name resolves.
func Installed(f Finder, name string) bool {
	_, err := f.Lookup(name)
	return err == nil
}

// PathOr returns the package directory of name, or name itself when it is
// not installed, leaving resolution to the runtime.
func PathOr(f Finder, name string) string {
	info, err := f.Lookup(name)
	if err != nil {
		return name
	}
	return info.Dir
}
