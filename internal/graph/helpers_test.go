package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// counting returns an effect that increments *n each time it runs.
func counting(n *int, params ...string) Func {
	return Func{Params: params, Body: func(*Call) error {
		*n++
		return nil
	}}
}

// synth returns a synthetic over params whose result is f of the current
// dependency values.
func synth(f func(vals ...any) any, params ...string) Func {
	all := append(append([]string{}, params...), "result")
	return Func{Params: all, Body: func(c *Call) error {
		vals := make([]any, 0, len(params))
		for _, p := range params {
			vals = append(vals, c.Value(p))
		}
		return c.Result(f(vals...))
	}}
}

func mustDefine(t *testing.T, g *Graph, decls Declarations, opts ...DefineOption) {
	t.Helper()
	require.NoError(t, g.Define(context.Background(), decls, opts...))
}

func mustNode(t *testing.T, g *Graph, id string) *Node {
	t.Helper()
	n, ok := g.Node(id)
	require.True(t, ok, "node %q not installed", id)
	return n
}

func accessor(t *testing.T, g *Graph, name string) *Accessor {
	t.Helper()
	h, err := g.Generate(context.Background(), name)
	require.NoError(t, err)
	a, ok := h.(*Accessor)
	require.True(t, ok, "handle of %q is %T", name, h)
	return a
}

// taskQueue is a Scheduler that holds tasks until drained.
type taskQueue struct {
	tasks []Task
}

func (q *taskQueue) Schedule(_ context.Context, task Task) {
	q.tasks = append(q.tasks, task)
}

func (q *taskQueue) drain(ctx context.Context) error {
	for len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		if err := task(ctx); err != nil {
			return err
		}
	}
	return nil
}

// mapFetcher serves sources from memory.
type mapFetcher map[string]string

func (m mapFetcher) Fetch(_ context.Context, url string) (string, error) {
	src, ok := m[url]
	if !ok {
		return "", fmt.Errorf("no source at %s", url)
	}
	return src, nil
}

// fakeInterpreter maps source text to prepared specs and definitions.
type fakeInterpreter struct {
	modules   map[string]Spec
	libraries map[string]*Definition
}

func (f *fakeInterpreter) CompileModule(_ context.Context, name, source string) (Spec, error) {
	spec, ok := f.modules[source]
	if !ok {
		return nil, fmt.Errorf("module %s: cannot compile %q", name, source)
	}
	return spec, nil
}

func (f *fakeInterpreter) ExecuteLibrary(_ context.Context, name, source, shim string) (*Definition, error) {
	if shim != "" {
		return &Definition{ID: name, Object: shim + ":" + source}, nil
	}
	def, ok := f.libraries[source]
	if !ok {
		return nil, fmt.Errorf("library %s: cannot execute %q", name, source)
	}
	return def, nil
}
