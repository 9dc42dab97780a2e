package jsconfig

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/filesystem"
	"github.com/dop251/goja"
	"github.com/spf13/afero"
)

func (s *session) stringArgs(call goja.FunctionCall) []string {
	out := make([]string, 0, len(call.Arguments))
	for _, a := range call.Arguments {
		if goja.IsUndefined(a) || goja.IsNull(a) {
			continue
		}
		out = append(out, a.String())
	}
	return out
}

func (s *session) abs(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(s.loader.cwd, p)
}

// pathObject is the subset of node's path module configs use.
func (s *session) pathObject() goja.Value {
	p := s.rt.NewObject()
	set := func(name string, fn func(args []string) any) {
		_ = p.Set(name, func(call goja.FunctionCall) goja.Value {
			return s.rt.ToValue(fn(s.stringArgs(call)))
		})
	}

	set("join", func(args []string) any {
		if len(args) == 0 {
			return "."
		}
		return filepath.Join(args...)
	})
	set("resolve", func(args []string) any {
		out := s.loader.cwd
		for _, a := range args {
			if filepath.IsAbs(a) {
				out = a
			} else {
				out = filepath.Join(out, a)
			}
		}
		return filepath.Clean(out)
	})
	set("dirname", func(args []string) any { return filepath.Dir(first(args)) })
	set("basename", func(args []string) any {
		base := filepath.Base(first(args))
		if len(args) > 1 {
			base = strings.TrimSuffix(base, args[1])
		}
		return base
	})
	set("extname", func(args []string) any { return filepath.Ext(first(args)) })
	set("normalize", func(args []string) any { return filepath.Clean(first(args)) })
	set("isAbsolute", func(args []string) any { return filepath.IsAbs(first(args)) })
	set("relative", func(args []string) any {
		if len(args) < 2 {
			return ""
		}
		rel, err := filepath.Rel(s.abs(args[0]), s.abs(args[1]))
		if err != nil {
			return args[1]
		}
		if rel == "." {
			return ""
		}
		return rel
	})
	_ = p.Set("sep", string(filepath.Separator))
	_ = p.Set("delimiter", string(filepath.ListSeparator))
	_ = p.Set("posix", p)
	return p
}

// fsObject exposes read-only synchronous file access.
func (s *session) fsObject() goja.Value {
	f := s.rt.NewObject()
	_ = f.Set("existsSync", func(call goja.FunctionCall) goja.Value {
		_, err := s.loader.fs.Stat(s.abs(call.Argument(0).String()))
		return s.rt.ToValue(err == nil)
	})
	_ = f.Set("readFileSync", func(call goja.FunctionCall) goja.Value {
		data, err := afero.ReadFile(s.loader.fs, s.abs(call.Argument(0).String()))
		if err != nil {
			panic(s.rt.NewGoError(err))
		}
		return s.rt.ToValue(string(data))
	})
	_ = f.Set("readdirSync", func(call goja.FunctionCall) goja.Value {
		names, err := filesystem.ReadDirNames(s.loader.fs, s.abs(call.Argument(0).String()))
		if err != nil {
			panic(s.rt.NewGoError(err))
		}
		items := make([]any, len(names))
		for i, n := range names {
			items[i] = n
		}
		return s.rt.NewArray(items...)
	})
	return f
}

func (s *session) urlObject() goja.Value {
	u := s.rt.NewObject()
	_ = u.Set("fileURLToPath", func(call goja.FunctionCall) goja.Value {
		raw := call.Argument(0).String()
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme != "file" {
			return s.rt.ToValue(raw)
		}
		return s.rt.ToValue(filepath.FromSlash(parsed.Path))
	})
	_ = u.Set("pathToFileURL", func(call goja.FunctionCall) goja.Value {
		return s.rt.ToValue("file://" + filepath.ToSlash(s.abs(call.Argument(0).String())))
	})
	return u
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
