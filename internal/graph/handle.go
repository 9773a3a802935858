package graph

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Handle is implemented by the handles of valued nodes.
type Handle interface {
	Get() any
}

// Accessor reads and writes a Data or Event node. It may be kept past the
// evaluation that produced it; writes run under the graph's current task.
type Accessor struct {
	g  *Graph
	id string
}

// ID returns the canonical id of the node.
func (a *Accessor) ID() string {
	return a.id
}

// Get returns the node's current value.
func (a *Accessor) Get() any {
	if n, ok := a.g.nodes[a.id]; ok {
		return n.Value
	}
	return nil
}

// Set stores v and propagates downstream when the value changed (or, for a
// non-coalescing event, always).
func (a *Accessor) Set(v any) error {
	return a.g.set(a.g.taskContext(), a.id, v)
}

// Call invokes a named helper of a Data node with the accessor as receiver.
func (a *Accessor) Call(helper string, args ...any) (any, error) {
	n, ok := a.g.nodes[a.id]
	if !ok {
		return nil, fmt.Errorf("node %q is not defined", a.id)
	}
	h, ok := n.Helpers[helper]
	if !ok {
		return nil, fmt.Errorf("node %q has no helper %q", a.id, helper)
	}
	return h(a, args...)
}

// Getter reads a Synthetic node's cached value.
type Getter struct {
	g  *Graph
	id string
}

// ID returns the canonical id of the node.
func (r *Getter) ID() string {
	return r.id
}

// Get returns the cached value.
func (r *Getter) Get() any {
	if n, ok := r.g.nodes[r.id]; ok {
		return n.Value
	}
	return nil
}

// Emitter is handed to an event's wireup routine.
type Emitter struct {
	g      *Graph
	id     string
	ctx    context.Context
	active atomic.Bool
}

// Fire sets the event's value through its accessor. Fires during the
// wireup call run in place; later fires go to the scheduler.
func (e *Emitter) Fire(v any) error {
	if e.active.Load() {
		return e.g.set(e.ctx, e.id, v)
	}
	id := e.id
	return e.g.schedule(e.ctx, func(ctx context.Context) error {
		return e.g.set(ctx, id, v)
	})
}

// Done is closed when the graph is closed. Wireup routines that keep
// firing from their own goroutine stop when it closes.
func (e *Emitter) Done() <-chan struct{} {
	return e.g.done
}

// ID returns the canonical id of the event node.
func (e *Emitter) ID() string {
	return e.id
}

// SetDefault stores v without marking the event invoked or propagating.
func (e *Emitter) SetDefault(v any) {
	apply := func(context.Context) error {
		if n, ok := e.g.nodes[e.id]; ok {
			n.Value = v
		}
		return nil
	}
	if e.active.Load() {
		_ = apply(e.ctx)
		return
	}
	_ = e.g.schedule(e.ctx, apply)
}

// As returns h as a T, or the value behind h when h is a handle that is
// not itself a T.
func As[T any](h any) (T, bool) {
	if v, ok := h.(T); ok {
		return v, true
	}
	if hd, ok := h.(Handle); ok {
		v, ok := hd.Get().(T)
		return v, ok
	}
	var zero T
	return zero, false
}

// Cell is a typed view of a Data or Event accessor.
type Cell[T any] struct {
	a *Accessor
}

// CellOf wraps h when it is an accessor.
func CellOf[T any](h any) (Cell[T], bool) {
	a, ok := h.(*Accessor)
	if !ok {
		return Cell[T]{}, false
	}
	return Cell[T]{a: a}, true
}

// Get returns the value, or the zero T when it holds another type.
func (c Cell[T]) Get() T {
	v, _ := As[T](c.a)
	return v
}

// Set stores v.
func (c Cell[T]) Set(v T) error {
	return c.a.Set(v)
}

func (g *Graph) set(ctx context.Context, id string, v any) error {
	n, ok := g.nodes[id]
	if !ok {
		return undefinedReference(id, id, nil)
	}
	switch n.Kind {
	case KindData:
		if g.equal(n.Value, v) {
			return nil
		}
	case KindEvent:
		if n.Coalesce && g.equal(n.Value, v) {
			return nil
		}
		n.Invoked = true
	default:
		return fmt.Errorf("node %q is a %s and cannot be set", id, n.Kind)
	}
	n.Value = v
	g.trace(ctx, OpSet, n, v)
	return g.TriggerDownstream(ctx, id)
}

// applyResult records a synthetic's result and propagates it unless
// coalescing suppresses it.
func (g *Graph) applyResult(ctx context.Context, id string, v any) error {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	n.Invoked = true
	if n.Coalesce && g.equal(n.Value, v) {
		return nil
	}
	n.Value = v
	n.propagations++
	g.trace(ctx, OpResult, n, v)
	return g.TriggerDownstream(ctx, id)
}
