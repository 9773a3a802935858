package graph

import (
	"context"
	"errors"
	"slices"
)

// Module-definition pseudo dependencies.
const (
	depRequire = "require"
	depExports = "exports"
	depModule  = "module"
)

var defaultLibraryDeps = []string{depRequire, depExports, depModule}

var errRequire = errors.New("synchronous require is not supported")

// loadLibrary fetches, executes and instantiates a library once.
func (g *Graph) loadLibrary(ctx context.Context, n *Node) error {
	if n.Loaded {
		return nil
	}
	if n.loading {
		return loadFailed(n.ID, nil, "library %q depends on itself", n.ID)
	}
	if g.fetcher == nil || g.interp == nil {
		return loadFailed(n.ID, nil, "library %q: no fetcher or interpreter configured", n.ID)
	}
	n.loading = true
	defer func() { n.loading = false }()

	src, err := g.fetcher.Fetch(ctx, n.Path)
	if err != nil {
		return loadFailed(n.ID, err, "fetch library %q from %s", n.ID, n.Path)
	}
	def, err := g.interp.ExecuteLibrary(ctx, n.ID, src, n.Shim)
	if err != nil {
		return loadFailed(n.ID, err, "execute library %q", n.ID)
	}

	deps := def.Dependencies
	if deps == nil {
		deps = defaultLibraryDeps
	}
	exports := make(map[string]any)
	values := make([]any, 0, len(deps))
	for _, dep := range deps {
		switch dep {
		case depRequire:
			values = append(values, Require(func(string) (any, error) { return nil, errRequire }))
		case depExports:
			values = append(values, exports)
		case depModule:
			values = append(values, nil)
		default:
			target, ok := g.resolve(dep, n.Scope, nil)
			if !ok {
				return undefinedReference(dep, n.ID, n.Scope)
			}
			h, err := g.generate(ctx, target, n.ID)
			if err != nil {
				return err
			}
			values = append(values, h)
		}
	}

	handle := def.Object
	if def.Factory != nil {
		handle, err = def.Factory(values)
		if err != nil {
			return loadFailed(n.ID, err, "instantiate library %q", n.ID)
		}
		if handle == nil && slices.Contains(deps, depExports) {
			handle = exports
		}
	}

	n.Handle = handle
	n.Loaded = true
	g.logger.Debug("library loaded", "node", n.ID, "path", n.Path)
	g.trace(ctx, OpLoad, n, nil)
	return nil
}
