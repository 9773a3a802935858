package compiler

import (
	"context"
	"fmt"

	"github.com/roach88/cable/internal/graph"
)

var _ graph.Interpreter = (*Compiler)(nil)

// CompileModule compiles a module document. A document shaped like a
// single node (it has a type or fn field) becomes that node; any other
// mapping becomes a scope, whose main member stands for the module.
func (c *Compiler) CompileModule(_ context.Context, name, source string) (graph.Spec, error) {
	tree, err := Parse(name, source)
	if err != nil {
		return nil, err
	}

	p := &problems{}
	var spec graph.Spec
	_, typed := tree["type"]
	_, fn := tree["fn"]
	if typed || fn {
		spec = c.node(name, tree, p)
	} else {
		spec = graph.Scope(c.members(tree, name, true, p))
	}
	if err := p.err(); err != nil {
		return nil, invalid(name, err)
	}
	c.logger.Debug("module compiled", "module", name)
	return spec, nil
}

// ExecuteLibrary turns library source into a definition. With a shim the
// shim's output is the handle and the library has no dependencies.
// Without one the source is a manifest:
//
//	id: stats
//	dependencies: [count]
//	factory: pack
//	value: {...}
//
// An absent factory means "value", which returns the manifest's value.
func (c *Compiler) ExecuteLibrary(_ context.Context, name, source, shim string) (*graph.Definition, error) {
	if shim != "" {
		s, ok := c.catalog.Shim(shim)
		if !ok {
			return nil, fmt.Errorf("library %s: unknown shim %q", name, shim)
		}
		obj, err := s(source)
		if err != nil {
			return nil, fmt.Errorf("library %s: shim %s: %w", name, shim, err)
		}
		return &graph.Definition{Dependencies: []string{}, Object: obj}, nil
	}

	m, err := c.manifest(name, source)
	if err != nil {
		return nil, err
	}
	factory, _ := c.catalog.Factory(m.Factory)
	return &graph.Definition{
		ID:           m.ID,
		Dependencies: m.Dependencies,
		Factory:      func(deps []any) (any, error) { return factory(m, deps) },
	}, nil
}

func (c *Compiler) manifest(name, source string) (Manifest, error) {
	tree, err := Parse(name, source)
	if err != nil {
		return Manifest{}, err
	}
	p := &problems{}
	f := fields{m: tree, path: name, p: p}
	f.allow("id", "dependencies", "factory", "value")

	m := Manifest{
		ID:           f.str("id", false),
		Dependencies: f.strs("dependencies"),
		Factory:      f.str("factory", false),
		Value:        tree["value"],
	}
	if m.Dependencies == nil {
		m.Dependencies = []string{}
	}
	if m.Factory == "" {
		m.Factory = "value"
	}
	if _, ok := c.catalog.Factory(m.Factory); !ok {
		p.add(join(name, "factory"), ErrUnknownFactory, "unknown factory %q", m.Factory)
	}
	if err := p.err(); err != nil {
		return Manifest{}, invalid(name, err)
	}
	return m, nil
}
