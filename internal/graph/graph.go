package graph

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/cable/internal/ir"
)

// DefaultMaxDepth bounds nested evaluation during one cascade.
const DefaultMaxDepth = 10000

// Task is deferred graph work run by a Scheduler.
type Task func(ctx context.Context) error

// Scheduler runs tasks on the goroutine that owns the graph. Results and
// event fires that arrive after their synchronous window are scheduled
// rather than applied in place. ctx is the context of the evaluation or
// wireup that handed out the callback.
type Scheduler interface {
	Schedule(ctx context.Context, task Task)
}

// Fetcher delivers source text for library paths and module URLs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Interpreter turns fetched source into declarations or library
// definitions.
type Interpreter interface {
	// CompileModule compiles a module document into the spec installed
	// under the module's own name.
	CompileModule(ctx context.Context, name, source string) (Spec, error)

	// ExecuteLibrary runs library source against the module-definition
	// shim. When shim is set the source is not module-aware and the
	// named global becomes the handle.
	ExecuteLibrary(ctx context.Context, name, source, shim string) (*Definition, error)
}

// Factory builds a library handle from its resolved dependencies.
type Factory func(deps []any) (any, error)

// Definition is what a library source declares when executed: an optional
// id, the names of its dependencies and the factory producing its handle.
// A nil Factory means Object is the handle.
type Definition struct {
	ID           string
	Dependencies []string
	Factory      Factory
	Object       any
}

// Require is passed for a library's "require" dependency. Synchronous
// require is not supported, so it always fails.
type Require func(name string) (any, error)

// Graph is a node registry plus the algorithms that build and propagate
// through it. A Graph must only be used from one goroutine.
type Graph struct {
	nodes map[string]*Node
	order []string

	fetcher  Fetcher
	interp   Interpreter
	sched    Scheduler
	tracer   Tracer
	logger   *slog.Logger
	equal    func(a, b any) bool
	maxDepth int

	depth   int
	current context.Context

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Graph.
type Option func(*Graph)

// WithFetcher sets the source fetcher for libraries and modules.
func WithFetcher(f Fetcher) Option {
	return func(g *Graph) { g.fetcher = f }
}

// WithInterpreter sets the interpreter for libraries and modules.
func WithInterpreter(i Interpreter) Option {
	return func(g *Graph) { g.interp = i }
}

// WithScheduler sets where late results and fires are applied. Without a
// scheduler they are applied immediately on the calling goroutine.
func WithScheduler(s Scheduler) Option {
	return func(g *Graph) { g.sched = s }
}

// WithTracer sets the trace hook.
func WithTracer(t Tracer) Option {
	return func(g *Graph) { g.tracer = t }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithEqual replaces the change-detection predicate used for coalescing.
func WithEqual(eq func(a, b any) bool) Option {
	return func(g *Graph) { g.equal = eq }
}

// WithMaxDepth bounds nested evaluation. Zero or negative disables the
// limit.
func WithMaxDepth(n int) Option {
	return func(g *Graph) { g.maxDepth = n }
}

// New creates an empty graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:    make(map[string]*Node),
		logger:   slog.Default(),
		equal:    ir.Equal,
		maxDepth: DefaultMaxDepth,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Node returns the registry entry for a canonical id. The returned node is
// live; callers must treat it as read-only.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all registry entries in install order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of installed nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Close tells event sources to stop: every Emitter's Done channel closes.
// Safe to call more than once and from any goroutine.
func (g *Graph) Close() {
	g.closeOnce.Do(func() { close(g.done) })
}

func (g *Graph) insert(ctx context.Context, n *Node) {
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.logger.Debug("node installed", "node", n.ID, "kind", n.Kind.String(), "scope", n.Scope.String())
	g.trace(ctx, OpDefine, n, nil)
}

func (g *Graph) remove(ctx context.Context, id string) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	delete(g.nodes, id)
	g.order = slices.DeleteFunc(g.order, func(s string) bool { return s == id })
	g.trace(ctx, OpRemove, n, nil)
}

// Enter makes ctx the context of the task now running on the graph until
// leave is called. Handles kept from earlier tasks write under it.
func (g *Graph) Enter(ctx context.Context) (leave func()) {
	prev := g.current
	g.current = ctx
	return func() { g.current = prev }
}

func (g *Graph) taskContext() context.Context {
	if g.current == nil {
		return context.Background()
	}
	return g.current
}

// schedule applies a late task through the scheduler, or immediately under
// the current task when none is configured. ctx names the task that handed
// out the callback.
func (g *Graph) schedule(ctx context.Context, task Task) error {
	if g.sched == nil {
		return task(g.taskContext())
	}
	g.sched.Schedule(ctx, task)
	return nil
}
