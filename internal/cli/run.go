package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/engine"
	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/ir"
	"github.com/roach88/cable/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Cache    string
	For      time.Duration
	MaxSteps int

	// Tokens allows overriding the cascade token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Tokens engine.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <document>",
		Short: "Run a document's graph",
		Long: `Define a document's graph and run it on the single-writer engine.

Events are activated, so init and interval sources start firing. Every
graph operation is traced to the SQLite database (created if it does not
exist). The engine runs until interrupted, or for the --for duration, then
drains its queue and prints each node's final value.

Example:
  cable run --db ./cable.db ./app.yaml
  cable run --db ./cable.db --for 5s --cache ./sources.bolt ./app.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Cache, "cache", "", "path to a bbolt file caching fetched sources")
	cmd.Flags().DurationVar(&opts.For, "for", 0, "stop after this long (default: until interrupted)")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", engine.DefaultMaxSteps, "evaluations allowed per cascade (0 disables)")

	return cmd
}

func runEngine(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()
	fs := afero.NewOsFs()
	comp := compiler.New(nil, compiler.WithFs(fs), compiler.WithLogger(logger))

	doc, decls, err := compileDocument(fs, formatter, comp, path)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionConfig{
		fs:       fs,
		compiler: comp,
		root:     doc.Root,
		database: opts.Database,
		cache:    opts.Cache,
		maxSteps: opts.MaxSteps,
		tokens:   opts.Tokens,
		logger:   logger,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to start engine", err)
	}
	s.start(cmd.Context())

	if err := s.engine.Define(cmd.Context(), decls); err != nil {
		_ = s.close()
		return defineError(formatter, err)
	}
	logger.Info("engine started", "db", opts.Database, "document", path, "nodes", s.engine.Graph().Len())
	if !formatter.JSON() {
		fmt.Fprintln(cmd.OutOrStdout(), "Engine started. Press Ctrl-C to stop.")
	}

	wait(cmd.Context(), opts.For, logger)

	if err := s.close(); err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "engine error", err)
	}
	logger.Info("engine stopped gracefully")

	return outputValues(formatter, finalValues(s.engine.Graph()))
}

// wait blocks until ctx is done, a signal arrives, or d elapses when set.
func wait(ctx context.Context, d time.Duration, logger *slog.Logger) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}
	<-ctx.Done()
	logger.Info("shutting down", "cause", context.Cause(ctx))
}

type sessionConfig struct {
	fs       afero.Fs
	compiler *compiler.Compiler
	root     string
	database string // store.MemoryPath when empty
	cache    string
	maxSteps int
	tokens   engine.TokenGenerator
	logger   *slog.Logger
}

// session is an engine with its store and source fetcher.
type session struct {
	engine     *engine.Engine
	store      *store.Store
	closeFetch func() error
	done       chan error
}

func openSession(ctx context.Context, cfg sessionConfig) (*session, error) {
	database := cfg.database
	if database == "" {
		database = store.MemoryPath
	}
	st, err := store.Open(database, store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	last, err := st.LastSeq(ctx)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to read last seq: %w", err)
	}
	fetch, closeFetch, err := fetcher(cfg.fs, cfg.root, cfg.cache)
	if err != nil {
		st.Close()
		return nil, err
	}

	tokens := cfg.tokens
	if tokens == nil {
		tokens = engine.UUIDv7Generator{}
	}
	eng := engine.New(
		engine.WithStore(st),
		engine.WithStartSeq(last),
		engine.WithTokens(tokens),
		engine.WithMaxSteps(cfg.maxSteps),
		engine.WithLogger(cfg.logger),
		engine.WithGraphOptions(
			graph.WithFetcher(fetch),
			graph.WithInterpreter(cfg.compiler),
		),
	)
	return &session{engine: eng, store: st, closeFetch: closeFetch, done: make(chan error, 1)}, nil
}

func (s *session) start(ctx context.Context) {
	go func() { s.done <- s.engine.Run(context.WithoutCancel(ctx)) }()
}

// close stops the engine, waits for it to drain, then releases the store
// and the source cache.
func (s *session) close() error {
	s.engine.Stop()
	runErr := <-s.done
	return errors.Join(runErr, s.closeFetch(), s.store.Close())
}

// NodeValue is a node's value after a run.
type NodeValue struct {
	Node  string `json:"node"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// finalValues reads value-carrying nodes once the engine has stopped.
func finalValues(g *graph.Graph) []NodeValue {
	out := []NodeValue{}
	for _, n := range g.Nodes() {
		switch n.Kind {
		case graph.KindData, graph.KindEvent, graph.KindSynthetic:
			out = append(out, NodeValue{Node: n.ID, Kind: n.Kind.String(), Value: ir.Describe(n.Value)})
		}
	}
	return out
}

func outputValues(formatter *OutputFormatter, values []NodeValue) error {
	if formatter.JSON() {
		return formatter.Success(values)
	}
	for _, v := range values {
		fmt.Fprintf(formatter.Writer, "%s = %s\n", v.Node, v.Value)
	}
	return nil
}
