package graph

// Reify rebuilds every node's dependents from the declared parameters.
// Lazy parameters must resolve but add no edge. Safe to call repeatedly.
func (g *Graph) Reify() error {
	for _, id := range g.order {
		g.nodes[id].Dependents = nil
	}
	for _, id := range g.order {
		n := g.nodes[id]
		if !n.hasBody() {
			continue
		}
		for _, p := range n.Params {
			if IsReserved(p) {
				continue
			}
			ref := p
			lazy := IsLazy(p)
			if lazy {
				ref = p[len(lazyPrefix):]
			}
			target, ok := g.resolve(ref, n.Scope, nil)
			if !ok {
				return undefinedReference(ref, id, n.Scope)
			}
			if !lazy {
				g.nodes[target].Dependents = append(g.nodes[target].Dependents, id)
			}
		}
	}
	g.logger.Debug("graph reified", "nodes", len(g.order))
	return nil
}
