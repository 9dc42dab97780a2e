// Package scaffold writes a starter project configuration for `karmatic
// init`.
package scaffold

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/karmatic/pkg/config"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/rollup"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/arthur-debert/karmatic/pkg/webpack"
	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	"github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/pelletier/go-toml/v2"
)

// FileName is the config file init creates.
var FileName = config.ProjectFiles[0]

const header = `# karmatic project configuration
# Run "karmatic config --explain" to see where each value comes from.

`

// Detect pins the bundler family to what is installed when opts leaves it
// on auto. Webpack wins when both are present, as it does at run time.
func Detect(finder pkgresolve.Finder, opts types.Options) types.Options {
	if opts.Bundler != types.BundlerAuto && opts.Bundler != "" {
		return opts
	}
	switch {
	case pkgresolve.Installed(finder, webpack.PackageName):
		opts.Bundler = types.BundlerWebpack
	case pkgresolve.Installed(finder, rollup.PackageName):
		opts.Bundler = types.BundlerRollup
	default:
		opts.Bundler = types.BundlerAuto
	}
	return opts
}

// Render returns the config file content for opts.
func Render(opts types.Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(opts); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "encoding starter config")
	}
	return buf.Bytes(), nil
}

// Init writes the starter config into dir and returns its path. An
// existing file is only replaced when force is set.
func Init(ctx context.Context, dir string, opts types.Options, force bool) (string, error) {
	logger := logging.GetLogger("scaffold")
	path := filepath.Join(dir, FileName)

	content, err := Render(opts)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		if !force {
			return "", errors.Newf(errors.ErrInvalidInput, "%s already exists", FileName).
				WithDetail("file", path).
				WithDetail(errors.DetailHint, "use --force to overwrite it")
		}
		logger.Debug().Str("path", path).Msg("Replacing existing config")
		if err := os.Remove(path); err != nil {
			return "", errors.Wrapf(err, errors.ErrFileWrite, "removing %s", path)
		}
	}

	op := operations.NewCreateFileOperation(core.OperationID(fmt.Sprintf("write-file-%s", FileName)), FileName)
	op.SetItem(&fileItem{path: FileName, content: content, mode: 0644})

	pipeline := synthfs.NewMemPipeline()
	if err := pipeline.Add(synthfs.NewOperationsPackageAdapter(op)); err != nil {
		return "", errors.Wrap(err, errors.ErrFileWrite, "planning config write")
	}
	result := synthfs.NewExecutor().Run(ctx, pipeline, filesystem.NewOSFileSystem(dir))
	if err := result.GetError(); err != nil {
		return "", errors.Wrapf(err, errors.ErrFileWrite, "writing %s", path)
	}

	logger.Info().Str("path", path).Str("bundler", opts.Bundler).Msg("Wrote project config")
	return path, nil
}

type fileItem struct {
	path    string
	content []byte
	mode    fs.FileMode
}

func (f *fileItem) Path() string       { return f.path }
func (f *fileItem) Type() string       { return "file" }
func (f *fileItem) Content() []byte    { return f.content }
func (f *fileItem) Mode() fs.FileMode  { return f.mode }
func (f *fileItem) IsDir() bool        { return false }
func (f *fileItem) ModTime() time.Time { return time.Now() }
func (f *fileItem) Size() int64        { return int64(len(f.content)) }
