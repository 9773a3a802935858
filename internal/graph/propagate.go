package graph

import (
	"context"
	"errors"
	"slices"
)

// TriggerDownstream re-evaluates every dependent of id, depth first, in
// dependents order. A dependent reachable along several changed edges runs
// once per edge. Dependents waiting on an unfinished synthetic are skipped;
// any other error aborts the cascade.
func (g *Graph) TriggerDownstream(ctx context.Context, id string) error {
	defer g.Enter(ctx)()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	for _, dep := range slices.Clone(n.Dependents) {
		if _, ok := g.nodes[dep]; !ok {
			continue
		}
		if err := g.evaluate(ctx, dep); err != nil {
			if errors.Is(err, ErrNotReady) || errors.Is(err, errSuperseded) {
				g.logger.Debug("evaluation suspended", "node", dep, "source", id, "reason", err)
				continue
			}
			return err
		}
	}
	return nil
}
