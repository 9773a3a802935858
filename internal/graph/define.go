package graph

import (
	"context"
	"slices"
	"strings"
)

type defineOptions struct {
	reify  bool
	wireup bool
	scope  Chain
}

// DefineOption configures a Define call.
type DefineOption func(*defineOptions)

// NoReify skips reification (and subdefinition execution) after install.
func NoReify() DefineOption {
	return func(o *defineOptions) { o.reify = false }
}

// NoWireup skips event activation after install.
func NoWireup() DefineOption {
	return func(o *defineOptions) { o.wireup = false }
}

// InScope installs the declarations inside chain.
func InScope(chain Chain) DefineOption {
	return func(o *defineOptions) { o.scope = chain }
}

// Define installs decls and, unless disabled, loads pending modules,
// reifies, runs subdefinitions and wires up events.
//
// Errors leave every node installed before the failing declaration in
// place.
func (g *Graph) Define(ctx context.Context, decls Declarations, opts ...DefineOption) error {
	defer g.Enter(ctx)()
	o := defineOptions{reify: true, wireup: true}
	for _, opt := range opts {
		opt(&o)
	}
	return g.define(ctx, decls, o)
}

func (g *Graph) define(ctx context.Context, decls Declarations, o defineOptions) error {
	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if err := g.install(ctx, name, decls[name], o.scope); err != nil {
			return err
		}
	}

	if !o.reify && !o.wireup {
		return nil
	}
	if err := g.loadModules(ctx); err != nil {
		return err
	}
	if o.reify {
		if err := g.Reify(); err != nil {
			return err
		}
		if err := g.executeSubdefinitions(ctx); err != nil {
			return err
		}
		if err := g.Reify(); err != nil {
			return err
		}
	}
	if o.wireup {
		return g.Wireup(ctx)
	}
	return nil
}

func checkName(name string, chain Chain) error {
	if strings.HasPrefix(name, lazyPrefix) {
		return illegalDefinition(name, chain, "names cannot begin with an underscore: %q", name)
	}
	if IsReserved(name) {
		return illegalDefinition(name, chain, "%q is a reserved word", name)
	}
	return nil
}

func (g *Graph) install(ctx context.Context, name string, spec Spec, chain Chain) error {
	if err := checkName(name, chain); err != nil {
		return err
	}
	if _, exists := g.nodes[name]; exists {
		return illegalDefinition(name, chain, "%q is already defined", name)
	}

	n := &Node{ID: name, Scope: chain}
	switch s := spec.(type) {
	case Data:
		n.Kind = KindData
		n.Value = s.Value
		n.Helpers = s.Helpers
	case Func:
		if s.Body == nil {
			return illegalDefinition(name, chain, "function %q has no body", name)
		}
		g.installFunc(n, s)
	case Event:
		if s.Wireup == nil {
			return illegalDefinition(name, chain, "event %q has no wireup routine", name)
		}
		n.Kind = KindEvent
		n.wireup = s.Wireup
		n.Value = s.Default
		n.Default = s.Default
		n.Coalesce = s.Coalesce
	case Library:
		if s.Path == "" {
			return illegalDefinition(name, chain, "library %q has no path", name)
		}
		n.Kind = KindLibrary
		n.Path = s.Path
		n.Shim = s.Shim
	case Module:
		if s.URL == "" {
			return illegalDefinition(name, chain, "module %q has no url", name)
		}
		n.Kind = KindModule
		n.URL = s.URL
	case Alias:
		if s.Reference == "" {
			return illegalDefinition(name, chain, "alias %q has no reference", name)
		}
		n.Kind = KindAlias
		n.Reference = s.Reference
	case Scope:
		return g.installScope(ctx, name, s, chain)
	default:
		return illegalDefinition(name, chain, "could not determine the meaning of %q", name)
	}
	g.insert(ctx, n)
	return nil
}

func (g *Graph) installFunc(n *Node, f Func) {
	params := slices.Clone(f.Params)
	n.Params = params
	n.Dependencies = FanIn(params)
	n.body = f.Body
	n.Kind = classify(params)

	switch n.Kind {
	case KindSynthetic:
		if i := slices.Index(params, paramRespond); i >= 0 {
			n.ResultIndex = i
			n.Coalesce = false
		} else {
			n.ResultIndex = slices.Index(params, paramResult)
			n.Coalesce = true
		}
	case KindSubdefinition:
		n.DefineIndex = slices.Index(params, paramDefine)
	case KindEvent:
		body := f.Body
		n.wireup = func(e *Emitter) error {
			return body(&Call{ctx: e.ctx, g: e.g, node: n, Args: []any{e}, params: params, emitter: e})
		}
		n.body = nil
	}
}

func (g *Graph) installScope(ctx context.Context, name string, members Scope, chain Chain) error {
	rewritten := make(Declarations, len(members))
	for k, v := range members {
		if k == "main" {
			rewritten[name] = v
			continue
		}
		if err := checkName(k, chain); err != nil {
			return err
		}
		rewritten[name+Separator+k] = v
	}
	return g.define(ctx, rewritten, defineOptions{scope: chain.Append(scopeSegment(chain, name))})
}
