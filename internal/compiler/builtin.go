package compiler

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/cable/internal/graph"
)

func registerBuiltins(c *Catalog) {
	c.funcs["identity"] = func(in Inputs) (any, error) { return in.first() }
	c.funcs["add"] = func(in Inputs) (any, error) { return fold(in, 0, func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }) }
	c.funcs["mul"] = func(in Inputs) (any, error) { return fold(in, 1, func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }) }
	c.funcs["concat"] = concat
	c.funcs["not"] = func(in Inputs) (any, error) {
		v, err := in.first()
		if err != nil {
			return nil, err
		}
		return !truthy(v), nil
	}
	c.funcs["count"] = func(in Inputs) (any, error) {
		v, err := in.first()
		if err != nil {
			return nil, err
		}
		return length(v)
	}
	c.funcs["pack"] = func(in Inputs) (any, error) {
		out := make(map[string]any, len(in.Names))
		for i, name := range in.Names {
			out[name] = in.Values[i]
		}
		return out, nil
	}
	c.funcs["log"] = func(in Inputs) (any, error) {
		attrs := make([]any, 0, 2+2*len(in.Names))
		attrs = append(attrs, "node", in.Node)
		for i, name := range in.Names {
			attrs = append(attrs, name, in.Values[i])
		}
		c.logger.Info("node values", attrs...)
		return nil, nil
	}

	c.helpers["increment"] = increment
	c.helpers["append"] = appendItems
	c.helpers["toggle"] = toggle

	c.shims["text"] = func(src string) (any, error) { return src, nil }
	c.shims["json"] = func(src string) (any, error) { return decodeCUE("library.json", src) }
	c.shims["lines"] = func(src string) (any, error) {
		src = strings.TrimRight(src, "\n")
		if src == "" {
			return []any{}, nil
		}
		lines := strings.Split(src, "\n")
		out := make([]any, len(lines))
		for i, l := range lines {
			out[i] = strings.TrimRight(l, "\r")
		}
		return out, nil
	}

	c.factories["value"] = func(m Manifest, _ []any) (any, error) { return m.Value, nil }
	c.factories["pack"] = func(m Manifest, deps []any) (any, error) {
		out := make(map[string]any, len(deps))
		for i, name := range m.Dependencies {
			if h, ok := deps[i].(graph.Handle); ok {
				out[name] = h.Get()
			} else {
				out[name] = deps[i]
			}
		}
		return out, nil
	}
}

// fold combines numeric inputs, staying in integers until a non-integer
// appears.
func fold(in Inputs, unit int64, ints func(a, b int64) int64, floats func(a, b float64) float64) (any, error) {
	acc := unit
	facc := float64(unit)
	isInt := true
	for i, v := range in.Values {
		n, f, vInt, ok := numeric(v)
		if !ok {
			return nil, fmt.Errorf("%s: %s is %T, not a number", in.Node, in.Names[i], v)
		}
		if isInt && vInt {
			acc = ints(acc, n)
			facc = float64(acc)
			continue
		}
		isInt = false
		facc = floats(facc, f)
	}
	if isInt {
		return int(acc), nil
	}
	return facc, nil
}

func numeric(v any) (int64, float64, bool, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, float64(i), true, true
		}
		f, err := n.Float64()
		return 0, f, false, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), float64(rv.Int()), true, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), float64(rv.Uint()), true, true
	case reflect.Float32, reflect.Float64:
		return 0, rv.Float(), false, true
	}
	return 0, 0, false, false
}

// concat joins lists when every input is a list, strings otherwise.
func concat(in Inputs) (any, error) {
	allLists := len(in.Values) > 0
	for _, v := range in.Values {
		if _, ok := v.([]any); !ok {
			allLists = false
			break
		}
	}
	if allLists {
		out := []any{}
		for _, v := range in.Values {
			out = append(out, v.([]any)...)
		}
		return out, nil
	}

	var b strings.Builder
	for _, v := range in.Values {
		if v == nil {
			continue
		}
		fmt.Fprint(&b, v)
	}
	return b.String(), nil
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if _, f, _, ok := numeric(v); ok {
		return f != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

func length(v any) (any, error) {
	if v == nil {
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len(), nil
	}
	return nil, fmt.Errorf("cannot count %T", v)
}

// increment adds its argument, or 1, to a numeric value.
func increment(a *graph.Accessor, args ...any) (any, error) {
	by := any(1)
	if len(args) > 0 {
		by = args[0]
	}
	next, err := fold(Inputs{Node: a.ID(), Names: []string{"value", "by"}, Values: []any{a.Get(), by}}, 0,
		func(x, y int64) int64 { return x + y }, func(x, y float64) float64 { return x + y })
	if err != nil {
		return nil, err
	}
	return next, a.Set(next)
}

// appendItems stores a copy of the list value with args appended.
func appendItems(a *graph.Accessor, args ...any) (any, error) {
	var items []any
	switch cur := a.Get().(type) {
	case nil:
	case []any:
		items = slices.Clone(cur)
	default:
		return nil, fmt.Errorf("%s: cannot append to %T", a.ID(), cur)
	}
	items = append(items, args...)
	return items, a.Set(items)
}

// toggle negates a boolean value.
func toggle(a *graph.Accessor, _ ...any) (any, error) {
	next := !truthy(a.Get())
	return next, a.Set(next)
}
