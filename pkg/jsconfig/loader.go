package jsconfig

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/logging"
	"github.com/arthur-debert/karmatic/pkg/pkgresolve"
	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

//go:embed prelude.js
var prelude string

// RootRef is the expression that holds the normalised user config in
// generated runner configs.
const RootRef = "userConfig"

// Kind records the shape of a config's export.
type Kind string

const (
	KindObject   Kind = "object"
	KindFunction Kind = "function"
	KindArray    Kind = "array"
	KindPromise  Kind = "promise"
)

// Result is a normalised config.
type Result struct {
	Path     string
	Kind     Kind
	Value    map[string]any
	Warnings []string
	// FromArray is set when the export (or the factory's result) was an
	// array of configs and the first entry was taken.
	FromArray bool
}

// Loader evaluates config files.
type Loader struct {
	fs     afero.Fs
	cwd    string
	finder pkgresolve.Finder
	env    map[string]string
	logger zerolog.Logger
}

// NewLoader creates a loader for a project directory. finder resolves
// require.resolve calls for bare names and may be nil.
func NewLoader(fs afero.Fs, cwd string, finder pkgresolve.Finder) *Loader {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.Index(kv, "="); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return &Loader{
		fs:     fs,
		cwd:    cwd,
		finder: finder,
		env:    env,
		logger: logging.GetLogger("jsconfig"),
	}
}

// WithEnv replaces the process.env seen by configs.
func (l *Loader) WithEnv(env map[string]string) *Loader {
	l.env = env
	return l
}

// Load evaluates path and normalises its export. Factory exports are
// called with args. The evaluation is interrupted when ctx is done.
// Each Load owns its interpreter, so functions in the result stay callable
// after it returns.
func (l *Loader) Load(ctx context.Context, path string, args ...any) (res *Result, err error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.cwd, path)
	}
	if _, statErr := l.fs.Stat(path); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, errors.Newf(errors.ErrConfigAbsent, "config %s does not exist", path)
		}
		return nil, errors.Wrapf(statErr, errors.ErrFileAccess, "reading %s", path)
	}

	done := logging.LogOperationStart(l.logger, "load "+path)
	defer done()

	s, err := newSession(l)
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.rt.Interrupt(ctx.Err())
		case <-stop:
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = errors.Newf(errors.ErrConfigInvalid, "evaluating %s: %v", path, r)
		}
	}()

	exported, err := s.require(path)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrapf(ctxErr, errors.ErrConfigLoad, "loading %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "evaluating %s", path)
	}

	res, err = s.normalize(path, exported, args)
	s.rt.ClearInterrupt()
	return res, err
}

func (s *session) normalize(path string, v goja.Value, args []any) (*Result, error) {
	res := &Result{Path: path, Kind: KindObject}
	v = s.unwrapDefault(v)

	if fn, ok := goja.AssertFunction(v); ok {
		res.Kind = KindFunction
		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = s.rt.ToValue(a)
		}
		out, err := fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "calling config factory in %s", path)
		}
		v = out
	}

	if s.isThenable(v) {
		res.Kind = KindPromise
		return res, errors.Newf(errors.ErrConfigUnsupported, "%s exports a promise; asynchronous configs are not supported", path)
	}

	if obj, ok := v.(*goja.Object); ok && obj.ClassName() == "Array" {
		if res.Kind == KindObject {
			res.Kind = KindArray
		}
		res.FromArray = true
		if obj.Get("length").ToInteger() == 0 {
			return nil, errors.Newf(errors.ErrConfigInvalid, "%s exports an empty array", path)
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s exports an array of configs, using the first entry", path))
		v = obj.Get("0")
		if s.isThenable(v) {
			return res, errors.Newf(errors.ErrConfigUnsupported, "%s exports a promise; asynchronous configs are not supported", path)
		}
	}

	converted, ok := s.convert(v, RootRef, 0)
	value, isMap := converted.(map[string]any)
	if !ok || !isMap {
		return nil, errors.Newf(errors.ErrConfigInvalid, "%s does not export a configuration object", path)
	}
	res.Value = value

	for _, w := range res.Warnings {
		s.logger.Warn().Str("path", path).Msg(w)
	}
	return res, nil
}

func (s *session) isThenable(v goja.Value) bool {
	obj, ok := v.(*goja.Object)
	if !ok {
		return false
	}
	then := obj.Get("then")
	if then == nil {
		return false
	}
	_, isFn := goja.AssertFunction(then)
	return isFn
}

func (s *session) unwrapDefault(v goja.Value) goja.Value {
	obj, ok := v.(*goja.Object)
	if !ok {
		return v
	}
	esm := obj.Get("__esModule")
	if esm == nil || !esm.ToBoolean() {
		return v
	}
	if def := obj.Get("default"); def != nil && !goja.IsUndefined(def) {
		return def
	}
	return v
}
