package jsvalue

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// ModuleLoader is the name of the helper the emitted code uses for
// ModuleCall values. Generated files must define it.
const ModuleLoader = "__karmaticLoad"

// Emit renders v as a JavaScript expression.
func Emit(v any) string {
	var b strings.Builder
	emit(&b, v, 0)
	return b.String()
}

// EmitIndent renders v starting at the given indentation depth.
func EmitIndent(v any, depth int) string {
	var b strings.Builder
	emit(&b, v, depth)
	return b.String()
}

// Key renders a property name, quoting it when it is not an identifier.
func Key(k string) string {
	if identifierRe.MatchString(k) {
		return k
	}
	return quote(k)
}

// Member renders the property access base.k.
func Member(base, k string) string {
	if identifierRe.MatchString(k) {
		return base + "." + k
	}
	return base + "[" + quote(k) + "]"
}

// Index renders the element access base[i].
func Index(base string, i int) string {
	return base + "[" + strconv.Itoa(i) + "]"
}

func quote(s string) string {
	out, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	// U+2028/U+2029 are escaped by encoding/json already; nothing else in
	// JSON string syntax differs from a JavaScript string literal.
	return string(out)
}

func emit(b *strings.Builder, v any, depth int) {
	indent := strings.Repeat("  ", depth)
	inner := strings.Repeat("  ", depth+1)

	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case string:
		b.WriteString(quote(t))
	case int:
		b.WriteString(strconv.Itoa(t))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case float64:
		switch {
		case math.IsNaN(t):
			b.WriteString("NaN")
		case math.IsInf(t, 1):
			b.WriteString("Infinity")
		case math.IsInf(t, -1):
			b.WriteString("-Infinity")
		default:
			b.WriteString(strconv.FormatFloat(t, 'f', -1, 64))
		}
	case *RegExp:
		b.WriteString(t.String())
	case *Func:
		switch {
		case t.Ref != "":
			b.WriteString(t.Ref)
		case t.Source != "":
			b.WriteString(t.Source)
		default:
			b.WriteString("function () {}")
		}
	case *Instance:
		if t.Ref != "" {
			b.WriteString(t.Ref)
			return
		}
		fmt.Fprintf(b, "undefined /* %s */", t.Constructor)
	case Raw:
		b.WriteString(t.Code)
	case *Raw:
		b.WriteString(t.Code)
	case ModuleCall:
		emitModuleCall(b, &t, depth)
	case *ModuleCall:
		emitModuleCall(b, t, depth)
	case Marshaler:
		emit(b, t.JSValue(), depth)
	case []string:
		emit(b, AsSlice(t), depth)
	case []any:
		if len(t) == 0 {
			b.WriteString("[]")
			return
		}
		b.WriteString("[\n")
		for i, item := range t {
			b.WriteString(inner)
			emit(b, item, depth+1)
			if i < len(t)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "]")
	case map[string][]string:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = val
		}
		emit(b, m, depth)
	case map[string]any:
		if len(t) == 0 {
			b.WriteString("{}")
			return
		}
		keys := SortedKeys(t)
		b.WriteString("{\n")
		for i, k := range keys {
			b.WriteString(inner + Key(k) + ": ")
			emit(b, t[k], depth+1)
			if i < len(keys)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(indent + "}")
	default:
		b.WriteString(quote(fmt.Sprint(t)))
	}
}

func emitModuleCall(b *strings.Builder, c *ModuleCall, depth int) {
	fmt.Fprintf(b, "%s(%s)(", ModuleLoader, quote(c.Module))
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		emit(b, arg, depth)
	}
	b.WriteString(")")
}
