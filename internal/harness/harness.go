package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/engine"
	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/ir"
	"github.com/roach88/cable/internal/source"
	"github.com/roach88/cable/internal/store"
)

// DefaultCascadeToken prefixes cascade tokens when a scenario names none.
const DefaultCascadeToken = "cascade"

// Harness runs one scenario on its own engine and store.
type Harness struct {
	store    *store.Store
	engine   *engine.Engine
	compiler *compiler.Compiler
	logger   *slog.Logger
}

// Option configures a run.
type Option func(*config)

type config struct {
	catalog *compiler.Catalog
	logger  *slog.Logger
	fs      afero.Fs
}

// WithCatalog supplies the functions, helpers and shims documents may
// name. Default: the builtins.
func WithCatalog(c *compiler.Catalog) Option {
	return func(cfg *config) { cfg.catalog = c }
}

// WithLogger sets the logger for the engine and compiler. Default:
// discard.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) { cfg.logger = l }
}

// WithFs sets the filesystem documents, modules and libraries are read
// from. Default: the OS.
func WithFs(fs afero.Fs) Option {
	return func(cfg *config) { cfg.fs = fs }
}

// Run executes a scenario and returns its result. The error is non-nil
// only when the scenario could not be run at all: a document that does
// not compile or define, or a store that cannot be opened. Failed
// expectations and assertions are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	return RunContext(context.Background(), scenario, opts...)
}

// RunContext is Run with a caller context.
func RunContext(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	comp := compiler.New(cfg.catalog, compiler.WithFs(cfg.fs), compiler.WithLogger(cfg.logger))
	decls, root, err := document(comp, scenario)
	if err != nil {
		return nil, err
	}

	prefix := scenario.CascadeToken
	if prefix == "" {
		prefix = DefaultCascadeToken
	}
	engineOpts := []engine.Option{
		engine.WithStore(st),
		engine.WithTokens(engine.NewSequenceGenerator(prefix)),
		engine.WithLogger(cfg.logger),
		engine.WithGraphOptions(
			graph.WithFetcher(source.Default(cfg.fs, root)),
			graph.WithInterpreter(comp),
		),
	}
	if scenario.MaxSteps > 0 {
		engineOpts = append(engineOpts, engine.WithMaxSteps(scenario.MaxSteps))
	}

	h := &Harness{
		store:    st,
		engine:   engine.New(engineOpts...),
		compiler: comp,
		logger:   cfg.logger,
	}
	return h.run(ctx, scenario, decls)
}

// document compiles the scenario's module or inline nodes. root is the
// directory relative sources are fetched from.
func document(comp *compiler.Compiler, s *Scenario) (graph.Declarations, string, error) {
	if s.Module != "" {
		decls, err := comp.CompileFile(s.Module)
		if err != nil {
			return nil, "", fmt.Errorf("compile %s: %w", s.Module, err)
		}
		return decls, filepath.Dir(s.Module), nil
	}
	decls, err := comp.Compile(s.Name, s.Nodes)
	if err != nil {
		return nil, "", fmt.Errorf("compile nodes: %w", err)
	}
	return decls, ".", nil
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, decls graph.Declarations) (*Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- h.engine.Run(runCtx) }()

	if err := h.engine.Define(ctx, decls); err != nil {
		h.engine.Stop()
		<-done
		return nil, fmt.Errorf("define: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	// Drain late results before reading anything back.
	h.engine.Stop()
	if err := <-done; err != nil && ctx.Err() == nil {
		h.logger.Warn("engine stopped with error", "error", err)
	}

	recs, err := h.store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	for _, r := range recs {
		result.Trace = append(result.Trace, traceEvent(r))
	}

	// Run has returned, so the graph has no writer left.
	g := h.engine.Graph()
	for _, n := range g.Nodes() {
		switch n.Kind {
		case graph.KindData, graph.KindEvent, graph.KindSynthetic:
			result.Values[n.ID] = n.Value
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, g) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep runs one step and records a failed expectation.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	var (
		out  any
		err  error
		what string
	)
	switch {
	case step.Set != "":
		what = "set " + step.Set
		err = h.engine.Set(ctx, step.Set, step.Value)
	case step.Fire != "":
		what = "fire " + step.Fire
		err = h.engine.Fire(ctx, step.Fire, step.Value)
	case step.Call != "":
		what = "call " + step.Call + "." + step.Helper
		out, err = h.engine.Call(ctx, step.Call, step.Helper, step.Args...)
	case step.Evaluate != "":
		what = "evaluate " + step.Evaluate
		out, err = h.engine.Evaluate(ctx, step.Evaluate)
	}
	h.logger.Debug("step executed", "step", i, "action", what, "error", err)

	expect := step.Expect
	if expect == nil {
		expect = &Expect{}
	}
	prefix := fmt.Sprintf("steps[%d] (%s)", i, what)

	if expect.Error != "" {
		if err == nil {
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got success", prefix, expect.Error))
		} else if !strings.Contains(err.Error(), expect.Error) {
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got %v", prefix, expect.Error, err))
		}
		return
	}
	if err != nil {
		result.AddError(fmt.Sprintf("%s: %v", prefix, err))
		return
	}
	if expect.Value != nil && !ir.Equal(expect.Value, out) {
		result.AddError(fmt.Sprintf("%s: expected %s, got %s", prefix, ir.Describe(expect.Value), ir.Describe(out)))
	}
}
