package jsconfig

import (
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/dop251/goja"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

var moduleExtensions = []string{"", ".js", ".cjs", ".mjs", ".json"}

type session struct {
	loader  *Loader
	rt      *goja.Runtime
	modules map[string]*goja.Object
	stub    goja.Callable
	logger  zerolog.Logger
}

func newSession(l *Loader) (*session, error) {
	rt := goja.New()
	s := &session{
		loader:  l,
		rt:      rt,
		modules: map[string]*goja.Object{},
		logger:  l.logger,
	}
	if _, err := rt.RunScript("karmatic:prelude", prelude); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "initialising config interpreter")
	}
	stub, ok := goja.AssertFunction(rt.Get("__karmaticStub"))
	if !ok {
		return nil, errors.New(errors.ErrInternal, "config interpreter prelude is incomplete")
	}
	s.stub = stub

	if err := rt.Set("process", s.processObject()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "initialising config interpreter")
	}
	if err := rt.Set("console", s.consoleObject()); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "initialising config interpreter")
	}
	return s, nil
}

// require loads a module by absolute path and returns its exports.
func (s *session) require(path string) (goja.Value, error) {
	if mod, ok := s.modules[path]; ok {
		return mod.Get("exports"), nil
	}

	source, err := afero.ReadFile(s.loader.fs, path)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(path, ".json") {
		parse, _ := goja.AssertFunction(s.rt.Get("JSON").ToObject(s.rt).Get("parse"))
		return parse(goja.Undefined(), s.rt.ToValue(string(source)))
	}

	code := string(source)
	if strings.HasSuffix(path, ".mjs") || looksLikeESM(code) {
		code = rewriteESM(code, "file://"+filepath.ToSlash(path))
	}
	if strings.HasPrefix(code, "#!") {
		code = "//" + code
	}

	module := s.rt.NewObject()
	exports := s.rt.NewObject()
	_ = module.Set("exports", exports)
	_ = module.Set("id", path)
	_ = module.Set("filename", path)
	s.modules[path] = module

	wrapped := "(function (exports, require, module, __filename, __dirname) {" + code + "\n})"
	fnValue, err := s.rt.RunScript(path, wrapped)
	if err != nil {
		delete(s.modules, path)
		return nil, err
	}
	fn, _ := goja.AssertFunction(fnValue)
	dir := filepath.Dir(path)
	_, err = fn(goja.Undefined(),
		exports,
		s.requireFunc(dir),
		module,
		s.rt.ToValue(path),
		s.rt.ToValue(dir),
	)
	if err != nil {
		delete(s.modules, path)
		return nil, err
	}
	return module.Get("exports"), nil
}

func (s *session) requireFunc(dir string) goja.Value {
	req := s.rt.ToValue(func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		v, err := s.requireFrom(dir, spec)
		if err != nil {
			panic(s.rt.NewGoError(err))
		}
		return v
	})
	obj := req.ToObject(s.rt)
	_ = obj.Set("resolve", func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		return s.rt.ToValue(s.resolveSpec(dir, spec))
	})
	return req
}

func (s *session) requireFrom(dir, spec string) (goja.Value, error) {
	name := strings.TrimPrefix(spec, "node:")
	switch name {
	case "path", "path/posix":
		return s.pathObject(), nil
	case "fs", "fs/promises":
		return s.fsObject(), nil
	case "process":
		return s.rt.Get("process"), nil
	case "url":
		return s.urlObject(), nil
	}

	if isRelative(spec) {
		path, ok := s.resolveFile(dir, spec)
		if !ok {
			return nil, errors.Newf(errors.ErrNotFound, "cannot find module %q from %s", spec, dir)
		}
		return s.require(path)
	}

	s.logger.Debug().Str("module", spec).Msg("Using stand-in for package")
	return s.stub(goja.Undefined(), s.rt.ToValue(stubName(spec)))
}

func (s *session) resolveSpec(dir, spec string) string {
	if isRelative(spec) {
		if path, ok := s.resolveFile(dir, spec); ok {
			return path
		}
		return filepath.Join(dir, spec)
	}
	if s.loader.finder != nil {
		if info, err := s.loader.finder.Lookup(packageOf(spec)); err == nil {
			if rest := strings.TrimPrefix(spec, packageOf(spec)); rest != "" {
				return filepath.Join(info.Dir, rest)
			}
			return info.EntryPath()
		}
	}
	return spec
}

func (s *session) resolveFile(dir, spec string) (string, bool) {
	base := spec
	if !filepath.IsAbs(base) {
		base = filepath.Join(dir, spec)
	}
	for _, ext := range moduleExtensions {
		if filesystem.IsFile(s.loader.fs, base+ext) {
			return base + ext, true
		}
	}
	for _, index := range []string{"index.js", "index.cjs", "index.json"} {
		if p := filepath.Join(base, index); filesystem.IsFile(s.loader.fs, p) {
			return p, true
		}
	}
	return "", false
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") ||
		spec == "." || spec == ".." || filepath.IsAbs(spec)
}

// packageOf returns the package part of a bare specifier.
func packageOf(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

// stubName turns a package name into the class name its main export
// conventionally has: html-webpack-plugin becomes HtmlWebpackPlugin.
func stubName(spec string) string {
	var b strings.Builder
	upper := true
	for _, r := range spec {
		if r == '-' || r == '/' || r == '@' || r == '.' || r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *session) processObject() *goja.Object {
	p := s.rt.NewObject()
	env := s.rt.NewObject()
	for k, v := range s.loader.env {
		_ = env.Set(k, v)
	}
	_ = p.Set("env", env)
	_ = p.Set("cwd", func(goja.FunctionCall) goja.Value { return s.rt.ToValue(s.loader.cwd) })
	_ = p.Set("platform", nodePlatform())
	_ = p.Set("argv", s.rt.NewArray("node", "karmatic"))
	versions := s.rt.NewObject()
	_ = versions.Set("node", "18.0.0")
	_ = p.Set("versions", versions)
	return p
}

func nodePlatform() string {
	if runtime.GOOS == "windows" {
		return "win32"
	}
	return runtime.GOOS
}

func (s *session) consoleObject() *goja.Object {
	c := s.rt.NewObject()
	logFn := func(level string) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, a := range call.Arguments {
				parts[i] = a.String()
			}
			s.logger.Debug().Str("level", level).Msg(strings.Join(parts, " "))
			return goja.Undefined()
		}
	}
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = c.Set(level, logFn(level))
	}
	return c
}
