// Package jsvalue models the subset of JavaScript values that flow between a
// user's bundler configuration and the generated runner configuration.
//
// Plain data is held as map[string]any, []any, string, float64, int64, bool
// and nil. Values that cannot be reproduced from data alone (functions,
// class instances) carry a Ref: the JavaScript expression that reaches the
// live value once the user's configuration is re-loaded by the runner.
package jsvalue

import (
	"fmt"
	"sort"
)

// RegExp is a regular expression literal.
type RegExp struct {
	Source string
	Flags  string
}

func (r *RegExp) String() string {
	return "/" + r.Source + "/" + r.Flags
}

// Func is a function value. Call is only available while the runtime that
// produced the function is alive.
type Func struct {
	Name   string
	Source string
	Ref    string
	call   func(args ...any) (any, error)
}

// NewFunc builds a Func backed by call.
func NewFunc(name, source, ref string, call func(args ...any) (any, error)) *Func {
	return &Func{Name: name, Source: source, Ref: ref, call: call}
}

// Callable reports whether the function can be invoked from Go.
func (f *Func) Callable() bool {
	return f != nil && f.call != nil
}

// Call invokes the function with args.
func (f *Func) Call(args ...any) (any, error) {
	if !f.Callable() {
		return nil, fmt.Errorf("function %q is not callable outside its runtime", f.Name)
	}
	return f.call(args...)
}

// Instance is an object built by a constructor other than Object.
type Instance struct {
	Constructor string
	Ref         string
	Fields      map[string]any
}

// Raw is emitted verbatim.
type Raw struct {
	Code string
}

// ModuleCall loads Module and invokes its export with Args. A module whose
// export carries a `default` member is unwrapped first.
type ModuleCall struct {
	Module string
	Args   []any
}

// Marshaler is implemented by types that describe themselves as a value.
type Marshaler interface {
	JSValue() any
}

// Clone deep-copies maps and slices. Leaf values are shared.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// AsMap returns v as an object, if it is one.
func AsMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// AsSlice returns v as a sequence. A lone non-nil value becomes a
// one-element sequence.
func AsSlice(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}

// Strings collects the string members of v.
func Strings(v any) []string {
	var out []string
	for _, item := range AsSlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Truthy follows JavaScript truthiness.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && t == t
	case int64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Plain converts v into data that JSON and YAML encoders accept. Values
// that only exist at runtime are described by their reference.
func Plain(v any) any {
	switch t := v.(type) {
	case Marshaler:
		return Plain(t.JSValue())
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Plain(val)
		}
		return out
	case map[string][]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Plain(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Plain(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case *RegExp:
		return t.String()
	case *Func:
		if t.Ref != "" {
			return "[Function " + t.Ref + "]"
		}
		return "[Function " + t.Name + "]"
	case *Instance:
		if t.Ref != "" {
			return "[" + t.Constructor + " " + t.Ref + "]"
		}
		return "[" + t.Constructor + "]"
	case ModuleCall:
		return fmt.Sprintf("[require(%q)]", t.Module)
	case *ModuleCall:
		return fmt.Sprintf("[require(%q)]", t.Module)
	case Raw:
		return t.Code
	case *Raw:
		return t.Code
	default:
		return v
	}
}
