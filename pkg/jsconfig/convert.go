package jsconfig

import (
	"strconv"

	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/dop251/goja"
)

const maxDepth = 32

// convert maps an interpreter value onto the jsvalue model. ok is false for
// undefined, which object conversion drops.
func (s *session) convert(v goja.Value, ref string, depth int) (any, bool) {
	return s.convertSeen(v, ref, depth, map[*goja.Object]string{})
}

func (s *session) convertSeen(v goja.Value, ref string, depth int, seen map[*goja.Object]string) (any, bool) {
	if v == nil || goja.IsUndefined(v) {
		return nil, false
	}
	if goja.IsNull(v) {
		return nil, true
	}

	obj, isObj := v.(*goja.Object)
	if !isObj {
		switch exported := v.Export().(type) {
		case int64:
			return exported, true
		case float64:
			return exported, true
		case bool:
			return exported, true
		default:
			return v.String(), true
		}
	}

	if fn, ok := goja.AssertFunction(v); ok {
		return s.wrapFunc(obj, fn, ref), true
	}

	switch obj.ClassName() {
	case "RegExp":
		return &jsvalue.RegExp{
			Source: obj.Get("source").String(),
			Flags:  obj.Get("flags").String(),
		}, true
	case "Date":
		return &jsvalue.Instance{Constructor: "Date", Ref: ref}, true
	}

	// Only ancestors are tracked: shared values are copied, cycles become
	// references back to the ancestor.
	if prev, ok := seen[obj]; ok {
		return jsvalue.Raw{Code: prev}, true
	}
	if depth > maxDepth {
		return jsvalue.Raw{Code: ref}, true
	}
	seen[obj] = ref
	defer delete(seen, obj)

	if obj.ClassName() == "Array" {
		n := int(obj.Get("length").ToInteger())
		items := make([]any, 0, n)
		for i := 0; i < n; i++ {
			item, _ := s.convertSeen(obj.Get(strconv.Itoa(i)), jsvalue.Index(ref, i), depth+1, seen)
			items = append(items, item)
		}
		return items, true
	}

	fields := map[string]any{}
	for _, key := range obj.Keys() {
		val, ok := s.convertSeen(obj.Get(key), jsvalue.Member(ref, key), depth+1, seen)
		if ok {
			fields[key] = val
		}
	}

	if ctor := constructorName(obj); ctor != "" && ctor != "Object" {
		return &jsvalue.Instance{Constructor: ctor, Ref: ref, Fields: fields}, true
	}
	return fields, true
}

func constructorName(obj *goja.Object) string {
	ctor, ok := obj.Get("constructor").(*goja.Object)
	if !ok {
		return ""
	}
	name := ctor.Get("name")
	if name == nil || goja.IsUndefined(name) {
		return ""
	}
	return name.String()
}

func (s *session) wrapFunc(obj *goja.Object, fn goja.Callable, ref string) *jsvalue.Func {
	name := ""
	if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
		name = n.String()
	}
	source := ""
	if !isProxy(obj) {
		source = obj.String()
	}
	return jsvalue.NewFunc(name, source, ref, func(args ...any) (any, error) {
		jsArgs := make([]goja.Value, len(args))
		for i, a := range args {
			jsArgs[i] = s.rt.ToValue(a)
		}
		out, err := fn(goja.Undefined(), jsArgs...)
		if err != nil {
			return nil, err
		}
		result, _ := s.convert(out, "", 0)
		return result, nil
	})
}

func isProxy(obj *goja.Object) bool {
	_, ok := obj.Export().(goja.Proxy)
	return ok
}
