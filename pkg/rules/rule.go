package rules

import (
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
)

type handlerSource int

const (
	fromLoader handlerSource = iota
	fromLoaderChain
	fromUseString
	fromUseObject
	fromUseList
	fromLoadersList
)

// Handler is one loader in a rule's chain.
type Handler struct {
	Name    string
	Options any

	source handlerSource
	index  int
}

// TransformRule is a bundler rule: conditions plus a handler chain.
type TransformRule struct {
	Test    MatchCondition
	Include MatchCondition
	Exclude MatchCondition

	Handlers []Handler
	// Nested holds oneOf and rules children.
	Nested []*TransformRule
	// Fields is the rule object as it will be emitted.
	Fields map[string]any
}

// NewRule builds a rule with a single handler.
func NewRule(test, exclude MatchCondition, handler string, options map[string]any) *TransformRule {
	fields := map[string]any{"loader": handler}
	if test != nil {
		fields["test"] = test.JSValue()
	}
	if exclude != nil {
		fields["exclude"] = exclude.JSValue()
	}
	if options != nil {
		fields["options"] = options
	}
	return &TransformRule{
		Test:     test,
		Exclude:  exclude,
		Handlers: []Handler{{Name: handler, Options: options, source: fromLoader}},
		Fields:   fields,
	}
}

// FromValue reads a rule from a configuration object.
func FromValue(v any) (*TransformRule, error) {
	fields, ok := jsvalue.AsMap(v)
	if !ok {
		return nil, errors.Newf(errors.ErrConfigInvalid, "rule must be an object, got %T", v)
	}
	fields = jsvalue.Clone(fields).(map[string]any)
	r := &TransformRule{Fields: fields}

	var err error
	test := fields["test"]
	if test == nil {
		test = fields["resource"]
	}
	if r.Test, err = ParseCondition(test); err != nil {
		return nil, err
	}
	if r.Include, err = ParseCondition(fields["include"]); err != nil {
		return nil, err
	}
	if r.Exclude, err = ParseCondition(fields["exclude"]); err != nil {
		return nil, err
	}

	r.Handlers = parseHandlers(fields)

	for _, key := range []string{"oneOf", "rules"} {
		for _, child := range jsvalue.AsSlice(fields[key]) {
			nested, err := FromValue(child)
			if err != nil {
				return nil, err
			}
			r.Nested = append(r.Nested, nested)
		}
	}
	return r, nil
}

// FromValues reads a list of rules. Entries that are not objects are
// rejected.
func FromValues(values []any) ([]*TransformRule, error) {
	out := make([]*TransformRule, 0, len(values))
	for _, v := range values {
		r, err := FromValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func parseHandlers(fields map[string]any) []Handler {
	var out []Handler
	ruleOptions := fields["options"]
	if ruleOptions == nil {
		ruleOptions = fields["query"]
	}

	if loader, ok := fields["loader"].(string); ok {
		chain := strings.Split(loader, "!")
		if len(chain) == 1 {
			out = append(out, Handler{Name: loaderName(loader), Options: ruleOptions, source: fromLoader})
		} else {
			for i, name := range chain {
				if name == "" {
					continue
				}
				out = append(out, Handler{Name: loaderName(name), source: fromLoaderChain, index: i})
			}
		}
	}

	for i, item := range jsvalue.AsSlice(fields["loaders"]) {
		out = append(out, entryHandler(item, fromLoadersList, i))
	}

	switch use := fields["use"].(type) {
	case string:
		chain := strings.Split(use, "!")
		source := fromUseString
		if len(chain) > 1 {
			source = fromLoaderChain
		}
		for i, name := range chain {
			if name != "" {
				out = append(out, Handler{Name: loaderName(name), Options: ruleOptions, source: source, index: i})
			}
		}
	case map[string]any:
		out = append(out, entryHandler(use, fromUseObject, 0))
	case []any:
		for i, item := range use {
			out = append(out, entryHandler(item, fromUseList, i))
		}
	}
	return out
}

func entryHandler(item any, source handlerSource, index int) Handler {
	switch t := item.(type) {
	case string:
		return Handler{Name: loaderName(t), source: source, index: index}
	case map[string]any:
		name, _ := t["loader"].(string)
		opts := t["options"]
		if opts == nil {
			opts = t["query"]
		}
		return Handler{Name: loaderName(name), Options: opts, source: source, index: index}
	default:
		return Handler{source: source, index: index}
	}
}

func loaderName(spec string) string {
	if i := strings.Index(spec, "?"); i >= 0 {
		spec = spec[:i]
	}
	return strings.TrimSpace(spec)
}

// PackageName extracts the package a loader reference points at. Paths
// into node_modules resolve to the package directory name.
func PackageName(spec string) string {
	spec = filepathToSlash(loaderName(spec))
	if i := strings.LastIndex(spec, "node_modules/"); i >= 0 {
		spec = spec[i+len("node_modules/"):]
	} else if strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, ".") {
		return spec
	}
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) > 1 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, "\\", "/")
}

// HandlerName is the first handler of the chain.
func (r *TransformRule) HandlerName() string {
	if len(r.Handlers) == 0 {
		return ""
	}
	return r.Handlers[0].Name
}

// HasHandler reports whether any handler in the chain is the named package.
func (r *TransformRule) HasHandler(name string) bool {
	_, ok := r.findHandler(name)
	return ok
}

func (r *TransformRule) findHandler(name string) (int, bool) {
	for i, h := range r.Handlers {
		if handlerIs(h.Name, name) {
			return i, true
		}
	}
	return -1, false
}

func handlerIs(handler, name string) bool {
	if handler == "" {
		return false
	}
	if PackageName(handler) == name {
		return true
	}
	h := filepathToSlash(handler)
	return strings.Contains(h, "/"+name+"/") || strings.HasSuffix(h, "/"+name)
}

func (r *TransformRule) hasConditions() bool {
	return r.Test != nil || r.Include != nil || r.Exclude != nil
}

// Matches evaluates the rule against filename.
func (r *TransformRule) Matches(filename string) (bool, error) {
	if !r.hasConditions() {
		if len(r.Nested) == 0 {
			return false, nil
		}
		found, err := FindRule(r.Nested, filename)
		return found != nil, err
	}

	if r.Exclude != nil {
		excluded, err := r.Exclude.Matches(filename)
		if err != nil || excluded {
			return false, err
		}
	}
	if r.Include != nil {
		included, err := r.Include.Matches(filename)
		if err != nil || !included {
			return false, err
		}
	}
	if r.Test != nil {
		ok, err := r.Test.Matches(filename)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(r.Handlers) == 0 && len(r.Nested) > 0 {
		found, err := FindRule(r.Nested, filename)
		return found != nil, err
	}
	return true, nil
}

// Enforce returns the rule's enforce stage ("pre", "post" or "").
func (r *TransformRule) Enforce() string {
	s, _ := r.Fields["enforce"].(string)
	return s
}

// UpdateHandlerOptions rewrites the options of the named handler in place.
// It reports false when the handler is absent or its options are not an
// object (a legacy query string).
func (r *TransformRule) UpdateHandlerOptions(name string, update func(map[string]any) map[string]any) bool {
	i, ok := r.findHandler(name)
	if !ok {
		for _, nested := range r.Nested {
			if nested.UpdateHandlerOptions(name, update) {
				return true
			}
		}
		return false
	}
	h := &r.Handlers[i]
	if h.source == fromLoaderChain {
		return false
	}

	var current map[string]any
	switch opts := h.Options.(type) {
	case nil:
		current = map[string]any{}
	case map[string]any:
		current = jsvalue.Clone(opts).(map[string]any)
	default:
		return false
	}
	next := update(current)
	h.Options = next

	switch h.source {
	case fromLoader:
		r.Fields["options"] = next
		delete(r.Fields, "query")
	case fromUseString:
		r.Fields["use"] = map[string]any{"loader": h.Name, "options": next}
	case fromUseObject:
		use := r.Fields["use"].(map[string]any)
		use["options"] = next
		delete(use, "query")
	case fromUseList, fromLoadersList:
		key := "use"
		if h.source == fromLoadersList {
			key = "loaders"
		}
		list := r.Fields[key].([]any)
		if entry, ok := list[h.index].(map[string]any); ok {
			entry["options"] = next
			delete(entry, "query")
		} else {
			list[h.index] = map[string]any{"loader": h.Name, "options": next}
		}
	}
	return true
}

// JSValue renders the rule as a configuration object.
func (r *TransformRule) JSValue() any {
	return r.Fields
}

// FindRule returns the first rule matching filename, descending into
// nested rule lists.
func FindRule(rules []*TransformRule, filename string) (*TransformRule, error) {
	for _, r := range rules {
		ok, err := r.Matches(filename)
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
	}
	return nil, nil
}

// FindHandler returns the first rule whose chain contains the named handler.
func FindHandler(rules []*TransformRule, name string) *TransformRule {
	for _, r := range rules {
		if r.HasHandler(name) {
			return r
		}
		if nested := FindHandler(r.Nested, name); nested != nil {
			return nested
		}
	}
	return nil
}
