package graph

import "strings"

// Candidates lists the canonical ids a local name may refer to from inside
// chain, innermost first. For chain [x y z] and name w that is
// x_y_z_w, x_y_w, x_w, w. The name "main" refers to an enclosing scope's
// own node, so it yields x_y_z, x_y, x and has no root candidate.
func Candidates(chain Chain, name string) []string {
	out := make([]string, 0, len(chain)+1)
	for i := len(chain); i > 0; i-- {
		prefix := strings.Join(chain[:i], Separator)
		if name == "main" {
			out = append(out, prefix)
		} else {
			out = append(out, prefix+Separator+name)
		}
	}
	if name != "main" {
		out = append(out, name)
	}
	return out
}

// Resolve maps a local name used inside chain to a canonical id. Aliases are
// followed transitively, each in its own scope. A cycle of aliases does not
// resolve.
func (g *Graph) Resolve(name string, chain Chain) (string, bool) {
	return g.resolve(name, chain, nil)
}

func (g *Graph) resolve(name string, chain Chain, seen map[string]bool) (string, bool) {
	for _, id := range Candidates(chain, name) {
		n, ok := g.nodes[id]
		if !ok {
			continue
		}
		if n.Kind != KindAlias {
			return id, true
		}
		if seen == nil {
			seen = make(map[string]bool)
		}
		if seen[id] {
			return "", false
		}
		seen[id] = true
		return g.resolve(n.Reference, n.Scope, seen)
	}
	return "", false
}

// scopeSegment is the chain segment pushed when expanding scope name inside
// chain: the name without the prefix the chain already implies.
func scopeSegment(chain Chain, name string) string {
	if len(chain) == 0 {
		return name
	}
	prefix := chain.String() + Separator
	if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
		return name[len(prefix):]
	}
	return name
}
