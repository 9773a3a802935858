package graph

import (
	"context"
	"fmt"
	"slices"
)

// Wireup activates every event node that has not been wired yet. Each
// wireup routine runs exactly once.
func (g *Graph) Wireup(ctx context.Context) error {
	defer g.Enter(ctx)()
	for _, id := range slices.Clone(g.order) {
		n, ok := g.nodes[id]
		if !ok || n.Kind != KindEvent || n.WiredUp {
			continue
		}
		n.WiredUp = true
		e := &Emitter{g: g, id: id, ctx: ctx}
		g.trace(ctx, OpWireup, n, nil)
		e.active.Store(true)
		err := n.wireup(e)
		e.active.Store(false)
		if err != nil {
			if passThrough(err) {
				return err
			}
			return fmt.Errorf("wire up event %q: %w", id, err)
		}
	}
	return nil
}
