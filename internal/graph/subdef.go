package graph

import (
	"context"
	"fmt"
	"slices"
)

// executeSubdefinitions runs every pending subdefinition once. Each may
// only depend on libraries; those are loaded first, then the node is
// removed and its body runs with a define callback bound to its name and
// scope.
func (g *Graph) executeSubdefinitions(ctx context.Context) error {
	for _, id := range slices.Clone(g.order) {
		id := id // per-iteration copy: c.define below may outlive this iteration
		n, ok := g.nodes[id]
		if !ok || n.Kind != KindSubdefinition {
			continue
		}

		targets := make([]string, 0, len(n.Dependencies))
		for _, dep := range n.Dependencies {
			target, ok := g.resolve(dep, n.Scope, nil)
			if !ok {
				return undefinedReference(dep, id, n.Scope)
			}
			if k := g.nodes[target].Kind; k != KindLibrary {
				return &Error{
					Code:    ErrCodeIllegalSubdefinition,
					Message: fmt.Sprintf("subdefinition %q depends on %s node %q; only libraries are allowed", id, k, target),
					Node:    id,
					Scope:   n.Scope,
				}
			}
			targets = append(targets, target)
		}

		handles := make([]any, 0, len(targets))
		for _, target := range targets {
			h, err := g.generate(ctx, target, id)
			if err != nil {
				return err
			}
			handles = append(handles, h)
		}

		g.remove(ctx, id)
		scope := n.Scope
		c := &Call{ctx: ctx, g: g, node: n, params: n.Params}
		c.define = func(spec Spec) error {
			return g.Define(ctx, Declarations{id: spec}, InScope(scope))
		}
		c.bindArgs(handles)
		g.logger.Debug("running subdefinition", "node", id)
		if err := g.invoke(c); err != nil {
			return err
		}
	}
	return nil
}
