package engine

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/karmaconf"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/arthur-debert/karmatic/pkg/stream"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
)

const (
	// PackageName is the engine package probed in node_modules.
	PackageName = "karma"
	// DefaultNode is the interpreter used to launch the engine.
	DefaultNode = "node"

	killDelay = 5 * time.Second
)

// CommandFunc builds the engine process. Tests substitute a helper process.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// FilterFunc returns a fresh filter chain for one output stream.
type FilterFunc func() []stream.Filter

// Driver runs the engine for a project.
type Driver struct {
	fs      afero.Fs
	cwd     string
	finder  pkgresolve.Finder
	node    string
	stdout  io.Writer
	stderr  io.Writer
	filters FilterFunc
	command CommandFunc
	logger  zerolog.Logger
}

// Option customises a Driver.
type Option func(*Driver)

// WithOutput sets where engine output is written.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(d *Driver) {
		d.stdout = stdout
		d.stderr = stderr
	}
}

// WithFilters sets the filter chain factory applied to engine output.
func WithFilters(fn FilterFunc) Option {
	return func(d *Driver) { d.filters = fn }
}

// WithCommand replaces how the engine process is built.
func WithCommand(fn CommandFunc) Option {
	return func(d *Driver) { d.command = fn }
}

// WithNode sets the node interpreter.
func WithNode(path string) Option {
	return func(d *Driver) { d.node = path }
}

// New creates a driver for cwd.
func New(fs afero.Fs, cwd string, finder pkgresolve.Finder, opts ...Option) *Driver {
	d := &Driver{
		fs:      fs,
		cwd:     cwd,
		finder:  finder,
		node:    DefaultNode,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		filters: func() []stream.Filter { return nil },
		command: exec.CommandContext,
		logger:  logging.GetLogger("engine"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Args returns the engine invocation for a configuration file.
func (d *Driver) Args(configPath string) ([]string, error) {
	info, err := d.finder.Lookup(PackageName)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrEngineNotFound, "karma is not installed").
			WithDetail(errors.DetailHint, "npm install --save-dev karma")
	}
	bin, ok := info.BinPath(PackageName)
	if !ok {
		return nil, errors.Newf(errors.ErrEngineNotFound, "karma %s does not declare an executable", info.Version).
			WithDetail("dir", info.Dir)
	}
	return []string{bin, "start", configPath}, nil
}

// Run writes rc to disk, runs the engine until it exits and removes the
// configuration again. The engine's exit status is carried in the error's
// exit_code detail; cancelling ctx interrupts the engine.
func (d *Driver) Run(ctx context.Context, rc *types.RunnerConfig) error {
	done := logging.LogOperationStart(d.logger, "run")
	defer done()

	path, err := karmaconf.Write(d.fs, rc, d.finder)
	if err != nil {
		return err
	}
	defer func() {
		if err := karmaconf.Remove(d.fs, path); err != nil {
			d.logger.Warn().Err(err).Str("path", path).Msg("Could not remove runner config")
		}
	}()

	args, err := d.Args(path)
	if err != nil {
		return err
	}
	return d.exec(ctx, args)
}

func (d *Driver) exec(ctx context.Context, args []string) error {
	cmd := d.command(ctx, d.node, args...)
	cmd.Dir = d.cwd
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = killDelay

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "stdout pipe for engine")
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "stderr pipe for engine")
	}

	logging.LogCommand(d.node, args)
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), errors.ErrEngineSignal, "engine interrupted")
		}
		return errors.Wrapf(err, errors.ErrEngineNotFound, "starting %s", d.node).
			WithDetail(errors.DetailHint, "node must be on PATH")
	}
	d.logger.Info().Int("pid", cmd.Process.Pid).Msg("Engine started")

	sink := stream.NewSyncWriter(d.stdout)
	errSink := sink
	if d.stderr != d.stdout {
		errSink = stream.NewSyncWriter(d.stderr)
	}

	drains := pool.New().WithErrors()
	drains.Go(func() error { return drain(stdoutPipe, stream.NewLineWriter(sink, "", d.filters()...)) })
	drains.Go(func() error { return drain(stderrPipe, stream.NewLineWriter(errSink, "", d.filters()...)) })
	drainErr := drains.Wait()

	waitErr := cmd.Wait()
	if drainErr != nil {
		d.logger.Warn().Err(drainErr).Msg("Engine output was cut short")
	}
	return d.exitError(ctx, waitErr)
}

func drain(r io.Reader, w *stream.LineWriter) error {
	_, err := io.Copy(w, r)
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func (d *Driver) exitError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(ctx.Err(), errors.ErrEngineSignal, "engine interrupted")
	}
	if err == nil {
		d.logger.Info().Msg("Engine finished")
		return nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if code < 0 {
			return errors.Wrapf(err, errors.ErrEngineSignal, "engine stopped by signal")
		}
		d.logger.Info().Int("exit_code", code).Msg("Engine failed")
		return errors.Newf(errors.ErrEngineFailed, "Exit %d", code).
			WithDetail(errors.DetailExitCode, code)
	}
	return errors.Wrap(err, errors.ErrEngineFailed, "waiting for engine")
}
