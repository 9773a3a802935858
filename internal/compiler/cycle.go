package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/cable/internal/graph"
)

// CycleWarning reports nodes whose eager dependencies form a loop. A change
// to any of them propagates back to itself until the graph's depth limit
// stops it.
//
// Cycles are warnings, not errors: a loop whose functions stop producing
// new values settles on its own, since unchanged values do not propagate.
type CycleWarning struct {
	Path    []string `json:"path"`
	Message string   `json:"message"`
	Level   string   `json:"level"`
}

// Cycles finds loops in a reified graph's propagation edges using
// Tarjan's algorithm. An acyclic graph returns an empty list.
func Cycles(g *graph.Graph) []CycleWarning {
	edges := make(propagationGraph)
	for _, n := range g.Nodes() {
		next := slices.Clone(n.Dependents)
		slices.Sort(next)
		edges[n.ID] = next
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(edges) {
		if len(scc) > 1 || hasSelfLoop(scc[0], edges) {
			warnings = append(warnings, sccToWarning(scc, edges))
		}
	}
	slices.SortFunc(warnings, func(a, b CycleWarning) int {
		return strings.Compare(a.Path[0], b.Path[0])
	})
	return warnings
}

// propagationGraph maps a node id to the ids its changes reach.
type propagationGraph map[string][]string

func hasSelfLoop(node string, edges propagationGraph) bool {
	return slices.Contains(edges[node], node)
}

func tarjanSCC(edges propagationGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	ids := make([]string, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}
	return sccs
}

func sccToWarning(scc []string, edges propagationGraph) CycleWarning {
	slices.Sort(scc)
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("node %s depends on itself", id),
			Level:   "warning",
		}
	}
	path := cyclePath(scc, edges)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("propagation cycle: %s", strings.Join(path, " -> ")),
		Level:   "warning",
	}
}

// cyclePath walks from the smallest member of an SCC along edges inside the
// SCC until it returns to the start.
func cyclePath(scc []string, edges propagationGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)
	for {
		visited[current] = true
		var next string
		for _, w := range edges[current] {
			if members[w] && (!visited[w] || w == start) {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
