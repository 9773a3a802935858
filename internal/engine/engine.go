package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/store"
)

// DefaultMaxSteps is the default number of evaluations one cascade may run.
const DefaultMaxSteps = 10000

// Observer receives every trace record after it is stamped, whether or not
// a store is configured.
type Observer func(rec store.Record)

// Engine owns a graph and is the only goroutine that touches it.
//
// Thread-safety model:
//   - Post, Do and the convenience methods: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Schedule, Record: called by the graph, on the Run goroutine
//
// Do must not be called from inside a task: the task would wait on itself.
type Engine struct {
	graph     *graph.Graph
	store     *store.Store
	seq       int64
	queue     *taskQueue
	tokens    TokenGenerator
	logger    *slog.Logger
	observers []Observer
	graphOpts []graph.Option

	maxSteps int
	quotas   map[string]*StepQuota
	cancels  map[string]context.CancelCauseFunc

	stopped  chan struct{}
	stopOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore writes the trace to s. Without a store, records only reach
// observers.
func WithStore(s *store.Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithTokens sets the cascade token generator. Default: UUIDv7Generator.
func WithTokens(gen TokenGenerator) Option {
	return func(e *Engine) {
		e.tokens = gen
	}
}

// WithStartSeq continues seq after start, usually store.LastSeq, so a
// reopened trace keeps increasing.
func WithStartSeq(start int64) Option {
	return func(e *Engine) {
		e.seq = start
	}
}

// WithMaxSteps sets the per-cascade evaluation quota.
//
// Default: 10000 steps (DefaultMaxSteps). Zero disables the quota.
func WithMaxSteps(maxSteps int) Option {
	return func(e *Engine) {
		e.maxSteps = maxSteps
	}
}

// WithLogger sets the logger for the engine and its graph.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithObserver adds a trace observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// WithGraphOptions passes options through to the graph. The engine always
// installs itself as the graph's scheduler and tracer.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(e *Engine) {
		e.graphOpts = append(e.graphOpts, opts...)
	}
}

// New creates an engine with an empty graph.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:    newTaskQueue(),
		tokens:   UUIDv7Generator{},
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
		quotas:   make(map[string]*StepQuota),
		cancels:  make(map[string]context.CancelCauseFunc),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	gopts := append([]graph.Option{graph.WithLogger(e.logger)}, e.graphOpts...)
	gopts = append(gopts, graph.WithScheduler(e), graph.WithTracer(e))
	e.graph = graph.New(gopts...)
	return e
}

// Run starts the single-writer loop. It blocks until ctx is cancelled or
// Stop is called and the queue has drained. On return the graph is closed,
// which stops its event sources.
//
// A failing task is logged with its cascade and origin, reported to its
// caller when it has one, and the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting")
	defer e.stopOnce.Do(func() { close(e.stopped) })
	defer e.graph.Close()

	for {
		t, ok := e.queue.TryDequeue()
		if ok {
			e.processTask(ctx, t)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// A signal can be stale: the task it announced was already
			// taken. The channel is closed by Close, so a stopped queue
			// keeps landing here until it is drained.
			if e.queue.Drained() {
				e.logger.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run drains what is already queued and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Post submits fn without waiting. Returns false once the engine is
// stopped.
func (e *Engine) Post(origin string, fn func(ctx context.Context, g *graph.Graph) error) bool {
	return e.queue.Enqueue(task{
		origin: origin,
		fn:     func(ctx context.Context) error { return fn(ctx, e.graph) },
	})
}

// Do submits fn and waits for it to run. The error is fn's, or the
// engine's when it stopped first, or ctx's.
func (e *Engine) Do(ctx context.Context, origin string, fn func(ctx context.Context, g *graph.Graph) error) error {
	done := make(chan error, 1)
	ok := e.queue.Enqueue(task{
		origin: origin,
		fn:     func(ctx context.Context) error { return fn(ctx, e.graph) },
		done:   done,
	})
	if !ok {
		return errStopped()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		select {
		case err := <-done:
			return err
		default:
			return errStopped()
		}
	}
}

// Schedule implements graph.Scheduler. The task runs as a new cascade
// whose parent is the cascade carried by ctx.
func (e *Engine) Schedule(ctx context.Context, t graph.Task) {
	parent := CascadeFrom(ctx)
	if !e.queue.Enqueue(task{origin: "scheduled", parent: parent, fn: t}) {
		e.logger.Warn("scheduled task dropped: engine stopped", "parent", parent)
	}
}

// Record implements graph.Tracer: it stamps rec with the next seq and the
// current cascade, charges evaluations to the cascade's quota and hands
// the record to observers and the store.
func (e *Engine) Record(ctx context.Context, rec graph.Record) {
	seq := e.nextSeq()
	cascade := CascadeFrom(ctx)

	if rec.Op == graph.OpEvaluate {
		e.chargeStep(cascade)
	}

	if e.store == nil && len(e.observers) == 0 {
		return
	}
	r := store.NewRecord(seq, cascade, rec.Op, rec.Node, rec.Kind.String(), rec.Value)
	for _, o := range e.observers {
		o(r)
	}
	if e.store == nil {
		return
	}
	if cascade == "" {
		e.logger.Warn("trace record outside a cascade", "seq", seq, "op", rec.Op, "node", rec.Node)
		return
	}
	// The cascade may be cancelled by its quota; its trace is still kept.
	if err := e.store.WriteRecord(context.WithoutCancel(ctx), r); err != nil {
		e.logger.Error("trace write failed",
			"error", err,
			"seq", seq,
			"cascade", cascade,
			"op", rec.Op,
			"node", rec.Node,
		)
	}
}

func (e *Engine) chargeStep(cascade string) {
	q, ok := e.quotas[cascade]
	if !ok {
		return
	}
	err := q.Check(cascade)
	var se *StepsExceededError
	if !errors.As(err, &se) || q.Current() != q.MaxSteps()+1 {
		return
	}
	e.logger.Error("max steps quota exceeded",
		"cascade", cascade,
		"steps", q.Current(),
		"limit", q.MaxSteps(),
	)
	if cancel, ok := e.cancels[cascade]; ok {
		cancel(NewQuotaError(se))
	}
}

// processTask runs t as one cascade.
// CRITICAL: called only from the Run goroutine.
func (e *Engine) processTask(ctx context.Context, t task) {
	token := e.tokens.Generate()
	seq := e.nextSeq()

	cctx, cancel := context.WithCancelCause(WithCascade(ctx, token))
	defer cancel(nil)
	defer e.graph.Enter(cctx)()
	e.quotas[token] = NewStepQuota(e.maxSteps)
	e.cancels[token] = cancel
	defer func() {
		delete(e.quotas, token)
		delete(e.cancels, token)
	}()

	if e.store != nil {
		c := store.Cascade{Token: token, Origin: t.origin, Seq: seq}
		if err := e.store.WriteCascade(ctx, c); err != nil {
			e.logger.Error("cascade write failed", "error", err, "cascade", token)
		}
	}
	e.logger.Debug("cascade started", "cascade", token, "origin", t.origin, "parent", t.parent, "seq", seq)

	err := t.fn(cctx)
	if err == nil {
		err = context.Cause(cctx)
	}

	if err != nil {
		logTaskError(e.logger, t, token, err)
		if e.store != nil {
			if ferr := e.store.FailCascade(context.WithoutCancel(ctx), token, err); ferr != nil {
				e.logger.Error("cascade failure write failed", "error", ferr, "cascade", token)
			}
		}
	}
	if t.done != nil {
		t.done <- err
	}
}

// Define installs decls.
func (e *Engine) Define(ctx context.Context, decls graph.Declarations, opts ...graph.DefineOption) error {
	return e.Do(ctx, "define", func(ctx context.Context, g *graph.Graph) error {
		return g.Define(ctx, decls, opts...)
	})
}

// Set writes v to a Data or Event node.
func (e *Engine) Set(ctx context.Context, name string, v any) error {
	return e.Do(ctx, "set "+name, func(ctx context.Context, g *graph.Graph) error {
		a, err := accessor(ctx, g, name)
		if err != nil {
			return err
		}
		return a.Set(v)
	})
}

// Fire writes v to an Event node.
func (e *Engine) Fire(ctx context.Context, name string, v any) error {
	return e.Do(ctx, "fire "+name, func(ctx context.Context, g *graph.Graph) error {
		a, err := accessor(ctx, g, name)
		if err != nil {
			return err
		}
		if n, ok := g.Node(a.ID()); ok && n.Kind != graph.KindEvent {
			return &RuntimeError{
				Code:    ErrCodeNotSettable,
				Message: fmt.Sprintf("%q is a %s node, not an event", name, n.Kind),
				Cascade: CascadeFrom(ctx),
			}
		}
		return a.Set(v)
	})
}

// Call invokes a Data node's helper.
func (e *Engine) Call(ctx context.Context, name, helper string, args ...any) (any, error) {
	var out any
	err := e.Do(ctx, "call "+name+"."+helper, func(ctx context.Context, g *graph.Graph) error {
		a, err := accessor(ctx, g, name)
		if err != nil {
			return err
		}
		out, err = a.Call(helper, args...)
		return err
	})
	return out, err
}

// Evaluate forces a node and returns its value.
func (e *Engine) Evaluate(ctx context.Context, name string) (any, error) {
	var out any
	err := e.Do(ctx, "evaluate "+name, func(ctx context.Context, g *graph.Graph) error {
		v, err := g.Evaluate(ctx, name)
		out = v
		return err
	})
	return out, err
}

// Peek returns a node's cached value without evaluating it.
func (e *Engine) Peek(ctx context.Context, name string) (any, error) {
	var out any
	err := e.Do(ctx, "peek "+name, func(_ context.Context, g *graph.Graph) error {
		id, ok := g.Resolve(name, nil)
		if !ok {
			return fmt.Errorf("node %q is not defined", name)
		}
		n, _ := g.Node(id)
		out = n.Value
		return nil
	})
	return out, err
}

// Graph returns the engine's graph. Only use it inside a task.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}

// nextSeq advances the logical clock that orders cascades and records.
// Only the Run goroutine calls it.
func (e *Engine) nextSeq() int64 {
	e.seq++
	return e.seq
}

// QueueLen returns the number of queued tasks.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// MaxSteps returns the per-cascade quota.
func (e *Engine) MaxSteps() int {
	return e.maxSteps
}

func accessor(ctx context.Context, g *graph.Graph, name string) (*graph.Accessor, error) {
	h, err := g.Generate(ctx, name)
	if err != nil {
		return nil, err
	}
	a, ok := h.(*graph.Accessor)
	if !ok {
		return nil, &RuntimeError{
			Code:    ErrCodeNotSettable,
			Message: fmt.Sprintf("%q has no accessor", name),
			Cascade: CascadeFrom(ctx),
		}
	}
	return a, nil
}

// logTaskError logs a failed task with enough context to find its trace.
func logTaskError(logger *slog.Logger, t task, cascade string, err error) {
	attrs := []any{
		"error", err,
		"cascade", cascade,
		"origin", t.origin,
	}
	if t.parent != "" {
		attrs = append(attrs, "parent", t.parent)
	}
	var re *RuntimeError
	if errors.As(err, &re) {
		attrs = append(attrs, "code", string(re.Code))
	}
	var ge *graph.Error
	if errors.As(err, &ge) {
		attrs = append(attrs, "code", string(ge.Code), "node", ge.Node)
	}
	logger.Error("task failed", attrs...)
}
