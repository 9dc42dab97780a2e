package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

const restartOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// ComposeFunc builds a fresh runner configuration.
type ComposeFunc func(ctx context.Context) (*types.RunnerConfig, error)

// Watcher keeps the engine running and restarts it with a recomposed
// configuration whenever one of its targets changes. The engine watches
// test sources itself; targets are the files that shape the configuration.
type Watcher struct {
	driver   *Driver
	compose  ComposeFunc
	targets  []string
	debounce time.Duration
	onError  func(error)
	logger   zerolog.Logger
}

// WatchOption customises a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets how long the watcher waits for events to settle.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithErrorHandler receives compose and engine failures. They do not stop
// the watcher: the next change retries.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *Watcher) { w.onError = fn }
}

// NewWatcher creates a watcher over absolute target paths.
func NewWatcher(driver *Driver, compose ComposeFunc, targets []string, opts ...WatchOption) *Watcher {
	w := &Watcher{
		driver:   driver,
		compose:  compose,
		targets:  targets,
		debounce: DefaultDebounce,
		onError:  func(error) {},
		logger:   logging.GetLogger("engine.watch"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type running struct {
	cancel context.CancelFunc
	done   chan error
}

// Run blocks until ctx is cancelled, then stops the engine and returns nil.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "creating file watcher")
	}
	defer func() { _ = fsw.Close() }()

	watched := make(map[string]bool, len(w.targets))
	dirs := map[string]bool{}
	for _, target := range w.targets {
		target = filepath.Clean(target)
		watched[target] = true
		dirs[filepath.Dir(target)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn().Err(err).Str("dir", dir).Msg("Cannot watch directory")
		}
	}

	errs := fsw.Errors
	current := w.start(ctx)
	var fire <-chan time.Time
	var timer *time.Timer

	for {
		var exited <-chan error
		if current != nil {
			exited = current.done
		}

		select {
		case <-ctx.Done():
			w.stop(current)
			return nil

		case err := <-exited:
			current.cancel()
			current = nil
			if err != nil {
				w.onError(err)
			}
			w.logger.Info().Msg("Engine exited, waiting for changes")

		case ev, ok := <-fsw.Events:
			if !ok {
				w.stop(current)
				return nil
			}
			if !watched[filepath.Clean(ev.Name)] || ev.Op&restartOps == 0 {
				continue
			}
			w.logger.Info().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Configuration input changed")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.stop(current)
			current = w.start(ctx)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}

func (w *Watcher) start(ctx context.Context) *running {
	rc, err := w.compose(ctx)
	if err != nil {
		w.onError(err)
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r := &running{cancel: cancel, done: make(chan error, 1)}
	go func() { r.done <- w.driver.Run(runCtx, rc) }()
	return r
}

func (w *Watcher) stop(r *running) {
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}
