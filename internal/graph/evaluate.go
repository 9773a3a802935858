package graph

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// Generate returns the handle of the node name refers to from the root
// scope, forcing computation when the node has never produced a value.
//
//   - Data, Event: *Accessor
//   - Synthetic: *Getter
//   - Library: the loaded handle
//   - Effect: nil
//
// A synthetic whose result is still outstanding returns ErrNotReady.
func (g *Graph) Generate(ctx context.Context, name string) (any, error) {
	defer g.Enter(ctx)()
	id, ok := g.Resolve(name, nil)
	if !ok {
		return nil, undefinedReference(name, name, nil)
	}
	h, err := g.generate(ctx, id, "")
	if errors.Is(err, errSuperseded) {
		return g.generate(ctx, id, "")
	}
	return h, err
}

// Evaluate forces the node name refers to and returns its current value:
// the cached value for valued nodes, the handle for libraries and nil for
// effects.
func (g *Graph) Evaluate(ctx context.Context, name string) (any, error) {
	defer g.Enter(ctx)()
	id, ok := g.Resolve(name, nil)
	if !ok {
		return nil, undefinedReference(name, name, nil)
	}
	if err := g.evaluate(ctx, id); err != nil && !errors.Is(err, errSuperseded) {
		return nil, err
	}
	n := g.nodes[id]
	switch n.Kind {
	case KindLibrary:
		return n.Handle, nil
	case KindEffect:
		return nil, nil
	}
	if n.Kind == KindSynthetic && !n.Invoked {
		return nil, ErrNotReady
	}
	return n.Value, nil
}

// Initialize seeds a synthetic's cached value and marks it invoked without
// running it.
func (g *Graph) Initialize(name string, v any) error {
	id, ok := g.Resolve(name, nil)
	if !ok {
		return undefinedReference(name, name, nil)
	}
	n := g.nodes[id]
	if n.Kind != KindSynthetic {
		return fmt.Errorf("cannot initialize %s node %q", n.Kind, id)
	}
	n.Value = v
	n.Invoked = true
	return nil
}

// generate produces the handle of id on behalf of requester. requester is
// empty for external callers.
func (g *Graph) generate(ctx context.Context, id, requester string) (any, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, undefinedReference(id, requester, nil)
	}
	switch n.Kind {
	case KindData, KindEvent:
		return &Accessor{g: g, id: id}, nil
	case KindSynthetic:
		if !n.Invoked {
			before := n.propagations
			if err := g.evaluate(ctx, id); err != nil {
				return nil, err
			}
			if !n.Invoked {
				return nil, ErrNotReady
			}
			// The result already re-ran requester through propagation.
			if requester != "" && n.propagations > before && slices.Contains(n.Dependents, requester) {
				return nil, errSuperseded
			}
		}
		return &Getter{g: g, id: id}, nil
	case KindEffect:
		return nil, nil
	case KindLibrary:
		if err := g.loadLibrary(ctx, n); err != nil {
			return nil, err
		}
		return n.Handle, nil
	case KindAlias:
		target, ok := g.resolve(n.Reference, n.Scope, map[string]bool{id: true})
		if !ok {
			return nil, undefinedReference(n.Reference, id, n.Scope)
		}
		return g.generate(ctx, target, requester)
	}
	return nil, fmt.Errorf("cannot generate %s node %q", n.Kind, id)
}

// evaluate forces id. A cancelled ctx stops the cascade with its cause.
func (g *Graph) evaluate(ctx context.Context, id string) error {
	n, ok := g.nodes[id]
	if !ok {
		return undefinedReference(id, id, nil)
	}

	if err := context.Cause(ctx); err != nil {
		return err
	}

	g.depth++
	defer func() { g.depth-- }()
	if g.maxDepth > 0 && g.depth > g.maxDepth {
		return &Error{
			Code:    ErrCodeDepthExceeded,
			Message: fmt.Sprintf("evaluation depth exceeded %d at %q", g.maxDepth, id),
			Node:    id,
			Scope:   n.Scope,
		}
	}

	switch n.Kind {
	case KindData, KindEvent:
		return nil
	case KindSynthetic, KindEffect:
		handles, err := g.generateDependencies(ctx, n)
		if err != nil {
			return err
		}
		g.trace(ctx, OpEvaluate, n, nil)
		c := &Call{ctx: ctx, g: g, node: n, params: n.Params}
		c.bindArgs(handles)
		return g.invoke(c)
	case KindLibrary:
		return g.loadLibrary(ctx, n)
	case KindAlias:
		target, ok := g.resolve(n.Reference, n.Scope, map[string]bool{id: true})
		if !ok {
			return undefinedReference(n.Reference, id, n.Scope)
		}
		return g.evaluate(ctx, target)
	}
	return fmt.Errorf("cannot evaluate %s node %q", n.Kind, id)
}

// generateDependencies resolves and generates every fan-in name of n, left
// to right, each fully before the next.
func (g *Graph) generateDependencies(ctx context.Context, n *Node) ([]any, error) {
	handles := make([]any, 0, len(n.Dependencies))
	for _, dep := range n.Dependencies {
		target, ok := g.resolve(dep, n.Scope, nil)
		if !ok {
			return nil, undefinedReference(dep, n.ID, n.Scope)
		}
		h, err := g.generate(ctx, target, n.ID)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// passThrough reports errors that keep their identity across nested
// cascades.
func passThrough(err error) bool {
	var ge *Error
	var fe *FuncError
	return errors.As(err, &ge) || errors.As(err, &fe) ||
		errors.Is(err, ErrNotReady) || errors.Is(err, errSuperseded)
}
