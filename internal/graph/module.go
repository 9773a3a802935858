package graph

import "context"

// loadModules replaces module placeholders with their compiled source until
// none remain. A module may itself declare further modules.
func (g *Graph) loadModules(ctx context.Context) error {
	for {
		var pending *Node
		for _, id := range g.order {
			if n := g.nodes[id]; n.Kind == KindModule {
				pending = n
				break
			}
		}
		if pending == nil {
			return nil
		}
		if g.fetcher == nil || g.interp == nil {
			return loadFailed(pending.ID, nil, "module %q: no fetcher or interpreter configured", pending.ID)
		}

		src, err := g.fetcher.Fetch(ctx, pending.URL)
		if err != nil {
			return loadFailed(pending.ID, err, "fetch module %q from %s", pending.ID, pending.URL)
		}
		spec, err := g.interp.CompileModule(ctx, pending.ID, src)
		if err != nil {
			return loadFailed(pending.ID, err, "compile module %q", pending.ID)
		}
		if _, ok := spec.(Module); ok {
			return loadFailed(pending.ID, nil, "module %q compiled to another module placeholder", pending.ID)
		}

		g.remove(ctx, pending.ID)
		if err := g.define(ctx, Declarations{pending.ID: spec}, defineOptions{scope: pending.Scope}); err != nil {
			return err
		}
		g.logger.Debug("module loaded", "node", pending.ID, "url", pending.URL)
	}
}
