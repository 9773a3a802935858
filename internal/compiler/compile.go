package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/helpers"
)

// Compiler compiles documents against a catalog.
type Compiler struct {
	catalog *Catalog
	fs      afero.Fs
	logger  *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithFs sets the filesystem CompileFile reads from. Default: the OS.
func WithFs(fs afero.Fs) Option {
	return func(c *Compiler) { c.fs = fs }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// New creates a compiler. A nil catalog means the builtins only.
func New(catalog *Catalog, opts ...Option) *Compiler {
	c := &Compiler{
		catalog: catalog,
		fs:      afero.NewOsFs(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = NewCatalog(c.logger)
	}
	return c
}

// Catalog returns the compiler's catalog.
func (c *Compiler) Catalog() *Catalog {
	return c.catalog
}

// CompileFile reads and compiles a document; the extension picks the
// format.
func (c *Compiler) CompileFile(path string) (graph.Declarations, error) {
	b, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return c.CompileString(path, string(b))
}

// CompileString parses and compiles a document.
func (c *Compiler) CompileString(name, src string) (graph.Declarations, error) {
	tree, err := Parse(name, src)
	if err != nil {
		return nil, err
	}
	return c.Compile(name, tree)
}

// Compile turns a parsed document into root declarations.
func (c *Compiler) Compile(name string, tree map[string]any) (graph.Declarations, error) {
	p := &problems{}
	decls := c.members(tree, "", false, p)
	if err := p.err(); err != nil {
		return nil, invalid(name, err)
	}
	c.logger.Debug("document compiled", "document", name, "nodes", len(decls))
	return decls, nil
}

func invalid(name string, err error) error {
	return &graph.Error{
		Code:    graph.ErrCodeIllegalDefinition,
		Message: fmt.Sprintf("document %s is invalid", name),
		Node:    name,
		Err:     err,
	}
}

// members compiles every entry of a mapping. Inside a scope, main names
// the scope's own node.
func (c *Compiler) members(tree map[string]any, path string, inScope bool, p *problems) graph.Declarations {
	decls := make(graph.Declarations, len(tree))
	for _, k := range sortedKeys(tree) {
		field := join(path, k)
		switch {
		case strings.HasPrefix(k, "_"):
			p.add(field, ErrIllegalName, "names cannot begin with an underscore")
			continue
		case graph.IsReserved(k):
			p.add(field, ErrIllegalName, "%q is a reserved word", k)
			continue
		case k == "main" && !inScope:
			p.add(field, ErrIllegalName, "main is only meaningful inside a scope")
			continue
		}
		if spec := c.node(field, tree[k], p); spec != nil {
			decls[k] = spec
		}
	}
	return decls
}

// node compiles one entry: a typed node, a function, a scope or a value.
func (c *Compiler) node(field string, v any, p *problems) graph.Spec {
	m, ok := v.(map[string]any)
	if !ok {
		return graph.Data{Value: v}
	}
	if t, ok := m["type"]; ok {
		return c.typed(field, t, m, p)
	}
	if _, ok := m["fn"]; ok {
		return c.function(field, m, p)
	}
	return graph.Scope(c.members(m, field, true, p))
}

func (c *Compiler) typed(field string, t any, m map[string]any, p *problems) graph.Spec {
	typ, ok := t.(string)
	if !ok {
		p.add(join(field, "type"), ErrInvalidValue, "type must be a string, got %T", t)
		return nil
	}
	f := fields{m: m, path: field, p: p}

	switch typ {
	case "data":
		f.allow("type", "value", "helpers")
		return graph.Data{Value: m["value"], Helpers: c.dataHelpers(f)}

	case "event":
		f.allow("type", "source", "period", "ref", "trigger_on_init", "default", "coalesce")
		return c.event(f)

	case "library":
		f.allow("type", "path", "shim")
		path := f.str("path", true)
		shim := f.str("shim", false)
		if shim != "" {
			if _, ok := c.catalog.Shim(shim); !ok {
				p.add(join(field, "shim"), ErrUnknownShim, "unknown shim %q", shim)
			}
		}
		return graph.Library{Path: path, Shim: shim}

	case "module":
		f.allow("type", "url")
		return graph.Module{URL: f.str("url", true)}

	case "alias":
		f.allow("type", "reference")
		return graph.Alias{Reference: f.str("reference", true)}

	case "scope":
		f.allow("type", "members")
		members, ok := m["members"].(map[string]any)
		if !ok {
			p.add(join(field, "members"), ErrMissingField, "scope needs a members mapping")
			return nil
		}
		return graph.Scope(c.members(members, field, true, p))
	}

	p.add(join(field, "type"), ErrUnknownType, "could not determine the meaning of type %q", typ)
	return nil
}

func (c *Compiler) dataHelpers(f fields) map[string]graph.Helper {
	names := f.strs("helpers")
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]graph.Helper, len(names))
	for _, name := range names {
		h, ok := c.catalog.Helper(name)
		if !ok {
			f.p.add(join(f.path, "helpers"), ErrUnknownHelper, "unknown helper %q", name)
			continue
		}
		out[name] = h
	}
	return out
}

func (c *Compiler) event(f fields) graph.Spec {
	source := f.str("source", false)
	trigger := f.bool("trigger_on_init", false)
	coalesce := f.bool("coalesce", false)
	def, hasDefault := f.m["default"]

	var ev graph.Event
	switch source {
	case "", "manual":
		ev = graph.Event{Wireup: func(*graph.Emitter) error { return nil }}
	case "init":
		ev = helpers.Init()
	case "interval":
		raw, ok := f.m["period"]
		if !ok {
			f.p.add(join(f.path, "period"), ErrMissingField, "interval events need a period")
			return nil
		}
		period, err := helpers.Period(raw)
		if err != nil || period <= 0 {
			f.p.add(join(f.path, "period"), ErrInvalidValue, "invalid period %v", raw)
			return nil
		}
		ev = helpers.Interval(period, trigger)
	case "interval_from":
		ref := f.str("ref", true)
		if ref == "" {
			return nil
		}
		return helpers.IntervalFrom(ref, trigger)
	default:
		f.p.add(join(f.path, "source"), ErrUnknownSource, "unknown event source %q", source)
		return nil
	}
	ev.Coalesce = coalesce
	if hasDefault {
		ev.Default = def
	}
	return ev
}

// function compiles {fn, params, effect, coalesce}. Synthetics get a
// result parameter appended, or respond when coalesce is false.
func (c *Compiler) function(field string, m map[string]any, p *problems) graph.Spec {
	f := fields{m: m, path: field, p: p}
	f.allow("fn", "params", "effect", "coalesce")

	name := f.str("fn", true)
	fn, ok := c.catalog.Func(name)
	if !ok && name != "" {
		p.add(join(field, "fn"), ErrUnknownFunc, "unknown function %q", name)
	}

	deps := f.strs("params")
	for _, d := range deps {
		if graph.IsReserved(d) {
			p.add(join(field, "params"), ErrInvalidParams, "reserved parameter %q cannot be declared", d)
		}
	}
	effect := f.bool("effect", false)
	coalesce := f.bool("coalesce", true)
	if fn == nil {
		return nil
	}

	params := append([]string{}, deps...)
	if !effect {
		if coalesce {
			params = append(params, "result")
		} else {
			params = append(params, "respond")
		}
	}
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = strings.TrimPrefix(d, "_")
	}

	return graph.Func{Params: params, Body: func(call *graph.Call) error {
		vals := make([]any, len(deps))
		for i, d := range deps {
			vals[i] = call.Value(d)
		}
		out, err := fn(Inputs{Node: call.Node(), Names: names, Values: vals})
		if err != nil {
			return err
		}
		if effect {
			return nil
		}
		return call.Result(out)
	}}
}

// fields reads typed fields of one node, reporting problems as it goes.
type fields struct {
	m    map[string]any
	path string
	p    *problems
}

func (f fields) allow(keys ...string) {
	allowed := make(map[string]bool, len(keys))
	for _, k := range keys {
		allowed[k] = true
	}
	for _, k := range sortedKeys(f.m) {
		if !allowed[k] {
			f.p.add(join(f.path, k), ErrUnknownField, "unknown field %q", k)
		}
	}
}

func (f fields) str(key string, required bool) string {
	v, ok := f.m[key]
	if !ok || v == nil {
		if required {
			f.p.add(join(f.path, key), ErrMissingField, "%s is required", key)
		}
		return ""
	}
	s, ok := v.(string)
	if !ok {
		f.p.add(join(f.path, key), ErrInvalidValue, "%s must be a string, got %T", key, v)
		return ""
	}
	if s == "" && required {
		f.p.add(join(f.path, key), ErrMissingField, "%s is required", key)
	}
	return s
}

func (f fields) bool(key string, def bool) bool {
	v, ok := f.m[key]
	if !ok || v == nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		f.p.add(join(f.path, key), ErrInvalidValue, "%s must be a boolean, got %T", key, v)
		return def
	}
	return b
}

func (f fields) strs(key string) []string {
	v, ok := f.m[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		f.p.add(join(f.path, key), ErrInvalidParams, "%s must be a list of names, got %T", key, v)
		return nil
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok || s == "" {
			f.p.add(fmt.Sprintf("%s[%d]", join(f.path, key), i), ErrInvalidParams, "expected a name, got %v", item)
			continue
		}
		out = append(out, s)
	}
	return out
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
