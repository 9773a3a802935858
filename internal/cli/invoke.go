package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/engine"
	"github.com/roach88/cable/internal/ir"
)

// InvokeOptions holds flags for the invoke command.
type InvokeOptions struct {
	*RootOptions
	Database string
	Sets     []string // name=value
	Fires    []string // name=value
	Tokens   engine.TokenGenerator
}

// InvokeResult is the invoke command's output.
type InvokeResult struct {
	Node  string `json:"node"`
	Value string `json:"value"`
}

// assignment is one parsed --set or --fire flag.
type assignment struct {
	Name  string
	Value any
}

// NewInvokeCommand creates the invoke command.
func NewInvokeCommand(rootOpts *RootOptions) *cobra.Command {
	return newInvokeCommand(&InvokeOptions{RootOptions: rootOpts})
}

func newInvokeCommand(opts *InvokeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <document> <node>",
		Short: "Set inputs and evaluate one node",
		Long: `Define a document, apply --set and --fire in order (sets first), then
evaluate a node and print its value.

Values are YAML scalars or flow collections: 3, true, hello, [a, b],
{x: 1}. The trace goes to --db when given, otherwise it is discarded.

Example:
  cable invoke ./app.yaml total --set price=4 --set quantity=3
  cable invoke ./app.yaml label --fire click=true --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return invokeNode(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for the trace")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "set a data node (name=value, repeatable)")
	cmd.Flags().StringArrayVar(&opts.Fires, "fire", nil, "fire an event node (name=value, repeatable)")

	return cmd
}

func invokeNode(opts *InvokeOptions, path, node string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := formatter.Logger()

	sets, err := parseAssignments(opts.Sets)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag, "invalid --set", err)
	}
	fires, err := parseAssignments(opts.Fires)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag, "invalid --fire", err)
	}

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
		maxSteps: engine.DefaultMaxSteps,
		tokens:   opts.Tokens,
		logger:   logger,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to start engine", err)
	}
	s.start(cmd.Context())
	defer s.close()

	ctx := cmd.Context()
	if err := s.engine.Define(ctx, decls); err != nil {
		return defineError(formatter, err)
	}
	for _, a := range sets {
		formatter.VerboseLog("set %s = %v", a.Name, a.Value)
		if err := s.engine.Set(ctx, a.Name, a.Value); err != nil {
			return formatter.fail(ExitFailure, ErrCodeEvaluate, "set "+a.Name, err)
		}
	}
	for _, a := range fires {
		formatter.VerboseLog("fire %s = %v", a.Name, a.Value)
		if err := s.engine.Fire(ctx, a.Name, a.Value); err != nil {
			return formatter.fail(ExitFailure, ErrCodeEvaluate, "fire "+a.Name, err)
		}
	}

	v, err := s.engine.Evaluate(ctx, node)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeEvaluate, "evaluate "+node, err)
	}

	result := InvokeResult{Node: node, Value: ir.Describe(v)}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s = %s\n", result.Node, result.Value)
	return nil
}

// parseAssignments splits name=value flags, decoding each value as YAML.
func parseAssignments(flags []string) ([]assignment, error) {
	out := make([]assignment, 0, len(flags))
	for _, f := range flags {
		name, raw, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%q: want name=value", f)
		}
		var v any
		if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("%q: %w", f, err)
		}
		out = append(out, assignment{Name: name, Value: v})
	}
	return out, nil
}
