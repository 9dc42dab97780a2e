package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/dlclark/regexp2"
)

// matchTimeout bounds a single user regexp evaluation.
const matchTimeout = time.Second

// MatchCondition is evaluated against a candidate filename.
type MatchCondition interface {
	Matches(filename string) (bool, error)
	JSValue() any
}

// Pattern matches with a regular expression.
type Pattern struct {
	Source  string
	Flags   string
	literal string
	re      *regexp2.Regexp
}

// NewPattern compiles an ECMAScript regular expression.
func NewPattern(source, flags string) (*Pattern, error) {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'u':
			opts |= regexp2.Unicode
		case 'g', 'y':
			// stateful flags have no effect on a single test
		}
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigInvalid, "invalid regular expression /%s/%s", source, flags)
	}
	re.MatchTimeout = matchTimeout
	return &Pattern{Source: source, Flags: flags, re: re}, nil
}

// MustPattern is NewPattern for expressions known to compile.
func MustPattern(source, flags string) *Pattern {
	p, err := NewPattern(source, flags)
	if err != nil {
		panic(err)
	}
	return p
}

// Prefix matches paths that start with s, the way bundlers treat string
// conditions.
func Prefix(s string) *Pattern {
	p := MustPattern("^"+regexp2.Escape(s), "")
	p.literal = s
	return p
}

// Matches implements MatchCondition.
func (p *Pattern) Matches(filename string) (bool, error) {
	ok, err := p.re.MatchString(filename)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrConfigInvalid, "evaluating /%s/%s", p.Source, p.Flags)
	}
	return ok, nil
}

// JSValue implements MatchCondition.
func (p *Pattern) JSValue() any {
	if p.literal != "" {
		return p.literal
	}
	return &jsvalue.RegExp{Source: p.Source, Flags: p.Flags}
}

// Predicate delegates to a user function.
type Predicate struct {
	Fn *jsvalue.Func
}

// Matches implements MatchCondition.
func (p *Predicate) Matches(filename string) (bool, error) {
	out, err := p.Fn.Call(filename)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrConfigInvalid, "calling condition %s", p.name())
	}
	return jsvalue.Truthy(out), nil
}

func (p *Predicate) name() string {
	if p.Fn.Name != "" {
		return p.Fn.Name
	}
	return "<anonymous>"
}

// JSValue implements MatchCondition.
func (p *Predicate) JSValue() any {
	return p.Fn
}

// AnyOf matches when any member does.
type AnyOf []MatchCondition

// Matches implements MatchCondition.
func (a AnyOf) Matches(filename string) (bool, error) {
	for _, c := range a {
		ok, err := c.Matches(filename)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// JSValue implements MatchCondition.
func (a AnyOf) JSValue() any {
	out := make([]any, len(a))
	for i, c := range a {
		out[i] = c.JSValue()
	}
	return out
}

// AllOf matches when every member does.
type AllOf []MatchCondition

// Matches implements MatchCondition.
func (a AllOf) Matches(filename string) (bool, error) {
	for _, c := range a {
		ok, err := c.Matches(filename)
		if err != nil || !ok {
			return false, err
		}
	}
	return len(a) > 0, nil
}

// JSValue implements MatchCondition.
func (a AllOf) JSValue() any {
	return map[string]any{"and": AnyOf(a).JSValue()}
}

// Not inverts its member.
type Not struct {
	Cond MatchCondition
}

// Matches implements MatchCondition.
func (n Not) Matches(filename string) (bool, error) {
	ok, err := n.Cond.Matches(filename)
	return !ok && err == nil, err
}

// JSValue implements MatchCondition.
func (n Not) JSValue() any {
	return map[string]any{"not": n.Cond.JSValue()}
}

// ParseCondition turns a configuration value into a condition. A nil value
// yields a nil condition.
func ParseCondition(v any) (MatchCondition, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case MatchCondition:
		return t, nil
	case string:
		return Prefix(t), nil
	case *jsvalue.RegExp:
		return NewPattern(t.Source, t.Flags)
	case *jsvalue.Func:
		return &Predicate{Fn: t}, nil
	case []any, []string:
		var out AnyOf
		for _, item := range jsvalue.AsSlice(t) {
			c, err := ParseCondition(item)
			if err != nil {
				return nil, err
			}
			if c != nil {
				out = append(out, c)
			}
		}
		return out, nil
	case map[string]any:
		return parseObjectCondition(t)
	default:
		return nil, errors.Newf(errors.ErrConfigInvalid, "unsupported rule condition %T", v)
	}
}

func parseObjectCondition(m map[string]any) (MatchCondition, error) {
	var all AllOf
	for _, key := range jsvalue.SortedKeys(m) {
		c, err := ParseCondition(m[key])
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		switch strings.ToLower(key) {
		case "or":
			all = append(all, c)
		case "and":
			if members, ok := c.(AnyOf); ok {
				all = append(all, AllOf(members))
			} else {
				all = append(all, c)
			}
		case "not":
			all = append(all, Not{Cond: c})
		case "test", "include":
			all = append(all, c)
		case "exclude":
			all = append(all, Not{Cond: c})
		default:
			return nil, errors.Newf(errors.ErrConfigInvalid, "unsupported condition key %q", key)
		}
	}
	if len(all) == 1 {
		return all[0], nil
	}
	return all, nil
}

// Describe renders a condition for logs.
func Describe(c MatchCondition) string {
	if c == nil {
		return "<none>"
	}
	return fmt.Sprint(jsvalue.Plain(c.JSValue()))
}
