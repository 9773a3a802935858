package graph

import (
	"context"
	"strings"
	"sync/atomic"
)

// ResultFunc is passed in a synthetic's result or respond slot.
type ResultFunc func(v any) error

// DefineFunc is passed in a subdefinition's define slot.
type DefineFunc func(spec Spec) error

// Call is the invocation context handed to a node body. Args holds one
// entry per declared parameter: dependency handles, a ResultFunc, a
// DefineFunc or the *Emitter for reserved parameters, and nil for type.
type Call struct {
	Args []any

	ctx     context.Context
	g       *Graph
	node    *Node
	params  []string
	active  atomic.Bool
	err     error
	emitter *Emitter
	define  DefineFunc
}

// Context returns the context the evaluation runs under.
func (c *Call) Context() context.Context {
	return c.ctx
}

// Done is closed when the graph is closed.
func (c *Call) Done() <-chan struct{} {
	return c.g.done
}

// Node returns the id of the node being invoked.
func (c *Call) Node() string {
	return c.node.ID
}

// Arg returns the argument bound to a parameter. Lazy parameters may be
// named with or without their marker. Unknown names return nil.
func (c *Call) Arg(name string) any {
	for i, p := range c.params {
		if p == name || (IsLazy(p) && strings.TrimPrefix(p, lazyPrefix) == name) {
			return c.Args[i]
		}
	}
	return nil
}

// Value returns the current value behind a parameter's handle. Library
// handles are returned as-is.
func (c *Call) Value(name string) any {
	arg := c.Arg(name)
	if h, ok := arg.(Handle); ok {
		return h.Get()
	}
	return arg
}

// Result delivers a synthetic's value. Called while the body runs it is
// applied in place and any cascade error is returned; called later it is
// handed to the scheduler.
func (c *Call) Result(v any) error {
	if c.node.Kind != KindSynthetic {
		panic("graph: Result called on " + c.node.Kind.String() + " node " + c.node.ID)
	}
	if c.active.Load() {
		err := c.g.applyResult(c.ctx, c.node.ID, v)
		if err != nil && c.err == nil {
			c.err = err
		}
		return err
	}
	id := c.node.ID
	return c.g.schedule(c.ctx, func(ctx context.Context) error {
		return c.g.applyResult(ctx, id, v)
	})
}

// Event returns the emitter of an event node's activation call.
func (c *Call) Event() *Emitter {
	if c.emitter == nil {
		panic("graph: Event called on " + c.node.Kind.String() + " node " + c.node.ID)
	}
	return c.emitter
}

// Define installs spec under the subdefinition's own name and scope.
func (c *Call) Define(spec Spec) error {
	if c.define == nil {
		panic("graph: Define called on " + c.node.Kind.String() + " node " + c.node.ID)
	}
	return c.define(spec)
}

// bindArgs lays handles (one per fan-in name) and the reserved slot values
// out in parameter order.
func (c *Call) bindArgs(handles []any) {
	c.Args = make([]any, 0, len(c.params))
	i := 0
	for _, p := range c.params {
		switch p {
		case paramResult, paramRespond:
			c.Args = append(c.Args, ResultFunc(c.Result))
		case paramDefine:
			c.Args = append(c.Args, c.define)
		case paramEvent:
			c.Args = append(c.Args, c.emitter)
		case paramType:
			c.Args = append(c.Args, nil)
		default:
			c.Args = append(c.Args, handles[i])
			i++
		}
	}
}

// invoke runs the node body inside its synchronous window.
func (g *Graph) invoke(c *Call) error {
	c.active.Store(true)
	err := c.node.body(c)
	c.active.Store(false)
	if err == nil {
		err = c.err
	}
	return wrapBody(c.node.ID, err)
}

func wrapBody(id string, err error) error {
	if err == nil || passThrough(err) {
		return err
	}
	return &FuncError{Node: id, Err: err}
}
