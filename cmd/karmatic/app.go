package karmatic

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/composer"
	"github.com/arthur-debert/karmatic/pkg/config"
	"github.com/arthur-debert/karmatic/pkg/diagnostics"
	"github.com/arthur-debert/karmatic/pkg/engine"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/manifest"
	"github.com/arthur-debert/karmatic/pkg/stream"
	"github.com/arthur-debert/karmatic/pkg/style"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Replaced in tests.
var (
	workingDir = os.Getwd
	environ    []string
	newFs      = filesystem.NewOS
	engineOpts []engine.Option
)

// app holds what one command invocation needs to compose and run.
type app struct {
	fs       afero.Fs
	cwd      string
	stdout   io.Writer
	stderr   io.Writer
	composer *composer.Composer
	logger   zerolog.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	cwd, err := workingDir()
	if err != nil {
		return nil, fmt.Errorf(MsgErrWorkingDir, err)
	}
	a := &app{
		fs:     newFs(),
		cwd:    cwd,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
		logger: logging.GetLogger("cli"),
	}

	composerOpts := []composer.Option{
		composer.WithWarnings(func(msg string) { style.Warn(a.stderr, msg) }),
	}
	if environ != nil {
		composerOpts = append(composerOpts, composer.WithEnv(lookupIn(environ)))
	}
	a.composer = composer.New(a.fs, cwd, composerOpts...)
	return a, nil
}

// driver builds an engine driver whose output is prettified for a.stdout.
func (a *app) driver() *engine.Driver {
	color := style.ColorEnabled(a.stdout)
	out := style.NewOutput(style.NewRenderer(a.stdout, color))
	formatter := diagnostics.New(a.fs, diagnostics.WithColor(color))

	opts := []engine.Option{
		engine.WithOutput(a.stdout, a.stderr),
		engine.WithFilters(func() []stream.Filter {
			return []stream.Filter{stream.Prettifier(out, stream.NewStackFilter(formatter, a.cwd))}
		}),
	}
	return engine.New(a.fs, a.cwd, a.composer.Finder(), append(opts, engineOpts...)...)
}

// run composes the configuration and runs the engine once, or keeps it
// running under a watcher when watch mode is on. load re-reads the options
// so a changed project file takes effect on restart.
func (a *app) run(ctx context.Context, res *config.Result, load func() (*config.Result, error)) error {
	opts := res.Options
	a.logger.Debug().
		Strs("files", opts.Files).
		Strs("browsers", opts.Browsers).
		Bool("watch", opts.Watch).
		Str("bundler", opts.Bundler).
		Msg("Starting test run")

	driver := a.driver()
	if !opts.Watch {
		rc, err := a.composer.Compose(ctx, opts)
		if err != nil {
			return err
		}
		return driver.Run(ctx, rc)
	}

	m, err := manifest.Load(a.fs, a.cwd)
	if err != nil {
		m = &manifest.Manifest{Dir: a.cwd}
	}
	extra := append([]string{}, config.ProjectFiles...)
	if res.ProjectFile != "" {
		extra = append(extra, res.ProjectFile)
	}
	targets := composer.WatchTargets(a.cwd, m, opts, extra...)
	a.logger.Info().Strs("targets", targets).Msgf(MsgWatchingTargets, len(targets))

	compose := func(ctx context.Context) (*types.RunnerConfig, error) {
		latest, err := load()
		if err != nil {
			return nil, err
		}
		latest.Options.Watch = true
		return a.composer.Compose(ctx, latest.Options)
	}
	watcher := engine.NewWatcher(driver, compose, targets,
		engine.WithErrorHandler(func(err error) { reportError(a.stderr, err, a.cwd) }))
	return watcher.Run(ctx)
}

func lookupIn(env []string) func(string) (string, bool) {
	values := map[string]string{}
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			values[k] = v
		}
	}
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}
