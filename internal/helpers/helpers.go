package helpers

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/cable/internal/graph"
)

// Fn declares a function node with explicit parameter names.
func Fn(params []string, body func(*graph.Call) error) graph.Func {
	return graph.Func{Params: params, Body: body}
}

// Data declares a value with optional helpers.
func Data(v any, helpers map[string]graph.Helper) graph.Data {
	return graph.Data{Value: v, Helpers: helpers}
}

// Library declares an external module.
func Library(path, shim string) graph.Library {
	return graph.Library{Path: path, Shim: shim}
}

// Reference declares an alias for another name.
func Reference(name string) graph.Alias {
	return graph.Alias{Reference: name}
}

// Pack declares a synthetic whose value maps each name to that node's
// current value.
func Pack(names ...string) graph.Func {
	params := append([]string{"result"}, names...)
	return graph.Func{Params: params, Body: func(c *graph.Call) error {
		out := make(map[string]any, len(names))
		for _, name := range names {
			out[name] = c.Value(name)
		}
		return c.Result(out)
	}}
}

// Counter declares an integer starting at -1 whose next helper increments
// it and returns the new value.
func Counter() graph.Data {
	return graph.Data{Value: -1, Helpers: map[string]graph.Helper{
		"next": func(a *graph.Accessor, _ ...any) (any, error) {
			n, err := toInt(a.Get())
			if err != nil {
				return nil, fmt.Errorf("counter %s: %w", a.ID(), err)
			}
			n++
			if err := a.Set(n); err != nil {
				return nil, err
			}
			return n, nil
		},
	}}
}

// toInt accepts the integer forms values take after passing through Go
// code, JSON or a declaration document.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case int32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}
