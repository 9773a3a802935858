package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/graph"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Nodes    int                        `json:"nodes,omitempty"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
	Warnings []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Check a document without running it",
		Long: `Check a graph document (YAML, JSON, HCL or CUE) without running it.

Every node declaration is checked and all problems are reported at once.
A document that compiles is then defined on a scratch graph, without
activating events, so unresolved references surface too. Propagation
loops are reported as warnings.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	fs := afero.NewOsFs()
	comp := compiler.New(nil, compiler.WithFs(fs), compiler.WithLogger(formatter.Logger()))

	doc, decls, err := compileDocument(fs, formatter, comp, path)
	if err != nil {
		return err
	}

	fetch, closeFetch, err := fetcher(fs, doc.Root, "")
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "failed to open sources", err)
	}
	defer closeFetch()

	g := graph.New(
		graph.WithFetcher(fetch),
		graph.WithInterpreter(comp),
		graph.WithLogger(formatter.Logger()),
	)
	defer g.Close()
	if err := g.Define(cmd.Context(), decls, graph.NoWireup()); err != nil {
		return defineError(formatter, err)
	}
	formatter.VerboseLog("Defined %d node(s)", g.Len())

	return outputValidateSuccess(formatter, ValidationResult{
		Valid:    true,
		Nodes:    g.Len(),
		Warnings: compiler.Cycles(g),
	})
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", w.Message)
	}
	fmt.Fprintf(formatter.Writer, "✓ Document valid (%d nodes)\n", result.Nodes)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errorCode(errs[0]),
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n\n", errorCode(err), err.Field, strings.TrimSpace(err.Message))
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

// errorCode falls back to the generic code for parse errors, which carry
// none.
func errorCode(e compiler.ValidationError) string {
	if e.Code == "" {
		return ErrCodeGeneric
	}
	return e.Code
}
