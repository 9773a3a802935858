package helpers

import (
	"fmt"
	"slices"

	"github.com/roach88/cable/internal/graph"
)

// Splice is a pending edit to a list: remove HowMany items at Index and
// insert Replacement there. A negative Index counts from the end, -1 being
// the position after the last item. Seq distinguishes repeated identical
// edits.
type Splice struct {
	Seq         int
	Index       int
	HowMany     int
	Replacement []any
}

// List declares a scope holding a list. The scope's own name is the edit
// node, with helpers splice, prepend, append and updateAt; name_array holds
// the items and name_updater applies each edit to them.
func List(items []any) graph.Scope {
	return graph.Scope{
		"array": graph.Data{Value: slices.Clone(items)},
		"main": graph.Data{
			Value: Splice{Replacement: slices.Clone(items)},
			Helpers: map[string]graph.Helper{
				"splice":   spliceHelper,
				"prepend":  prependHelper,
				"append":   appendHelper,
				"updateAt": updateAtHelper,
			},
		},
		"updater": graph.Func{Params: []string{"main", "_array"}, Body: applySplice},
	}
}

func edit(a *graph.Accessor, index, howMany int, replacement []any) (any, error) {
	prev, _ := a.Get().(Splice)
	s := Splice{Seq: prev.Seq + 1, Index: index, HowMany: howMany, Replacement: replacement}
	return nil, a.Set(s)
}

func spliceHelper(a *graph.Accessor, args ...any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("splice: want index, count and items, got %d arguments", len(args))
	}
	index, err := toInt(args[0])
	if err != nil {
		return nil, fmt.Errorf("splice index: %w", err)
	}
	howMany, err := toInt(args[1])
	if err != nil {
		return nil, fmt.Errorf("splice count: %w", err)
	}
	return edit(a, index, howMany, slices.Clone(args[2:]))
}

func prependHelper(a *graph.Accessor, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("prepend: want 1 argument, got %d", len(args))
	}
	return edit(a, 0, 0, []any{args[0]})
}

func appendHelper(a *graph.Accessor, args ...any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("append: want 1 argument, got %d", len(args))
	}
	return edit(a, -1, 0, []any{args[0]})
}

func updateAtHelper(a *graph.Accessor, args ...any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("updateAt: want index and item, got %d arguments", len(args))
	}
	index, err := toInt(args[0])
	if err != nil {
		return nil, fmt.Errorf("updateAt index: %w", err)
	}
	return edit(a, index, 1, []any{args[1]})
}

func applySplice(c *graph.Call) error {
	s, ok := c.Value("main").(Splice)
	if !ok {
		return fmt.Errorf("list edit is %T, not a Splice", c.Value("main"))
	}
	arr, ok := c.Arg("_array").(*graph.Accessor)
	if !ok {
		return fmt.Errorf("list array has no accessor")
	}
	items, _ := arr.Get().([]any)
	return arr.Set(spliceItems(items, s))
}

// spliceItems returns a copy of items with s applied. Out of range
// positions are clamped.
func spliceItems(items []any, s Splice) []any {
	out := slices.Clone(items)
	i := s.Index
	if i < 0 {
		i = len(out) + 1 + i
	}
	i = max(0, min(i, len(out)))
	end := max(i, min(i+s.HowMany, len(out)))
	return slices.Insert(slices.Delete(out, i, end), i, s.Replacement...)
}
