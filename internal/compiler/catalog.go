package compiler

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/cable/internal/graph"
)

// Inputs are the dependency values handed to a Function, in parameter
// order. Names have any lazy marker removed.
type Inputs struct {
	Node   string
	Names  []string
	Values []any
}

// Function computes a function node's value. For effects the value is
// discarded.
type Function func(in Inputs) (any, error)

// Shim turns raw library source into the library's handle.
type Shim func(source string) (any, error)

// Manifest is a library document that names its factory.
type Manifest struct {
	ID           string
	Dependencies []string
	Factory      string
	Value        any
}

// Factory builds a library handle from its manifest and the handles of its
// dependencies.
type Factory func(m Manifest, deps []any) (any, error)

// Catalog holds the named Go code a document may refer to.
type Catalog struct {
	mu        sync.RWMutex
	funcs     map[string]Function
	helpers   map[string]graph.Helper
	shims     map[string]Shim
	factories map[string]Factory
	logger    *slog.Logger
}

// NewCatalog returns a catalog holding the builtins. logger receives the
// output of the log function; nil means slog.Default().
func NewCatalog(logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{
		funcs:     make(map[string]Function),
		helpers:   make(map[string]graph.Helper),
		shims:     make(map[string]Shim),
		factories: make(map[string]Factory),
		logger:    logger,
	}
	registerBuiltins(c)
	return c
}

// RegisterFunc adds or replaces a function.
func (c *Catalog) RegisterFunc(name string, fn Function) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs[name] = fn
}

// RegisterHelper adds or replaces a data helper.
func (c *Catalog) RegisterHelper(name string, h graph.Helper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.helpers[name] = h
}

// RegisterShim adds or replaces a library shim.
func (c *Catalog) RegisterShim(name string, s Shim) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shims[name] = s
}

// RegisterFactory adds or replaces a library factory.
func (c *Catalog) RegisterFactory(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// Func looks up a function.
func (c *Catalog) Func(name string) (Function, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.funcs[name]
	return fn, ok
}

// Helper looks up a data helper.
func (c *Catalog) Helper(name string) (graph.Helper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.helpers[name]
	return h, ok
}

// Shim looks up a library shim.
func (c *Catalog) Shim(name string) (Shim, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.shims[name]
	return s, ok
}

// Factory looks up a library factory.
func (c *Catalog) Factory(name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.factories[name]
	return f, ok
}

// Names lists the registered functions, helpers, shims and factories,
// each sorted.
func (c *Catalog) Names() (funcs, helpers, shims, factories []string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.funcs), sortedKeys(c.helpers), sortedKeys(c.shims), sortedKeys(c.factories)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (in Inputs) first() (any, error) {
	if len(in.Values) == 0 {
		return nil, fmt.Errorf("%s: needs at least one parameter", in.Node)
	}
	return in.Values[0], nil
}
