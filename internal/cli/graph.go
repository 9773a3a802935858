package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/roach88/cable/internal/compiler"
	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/ir"
)

// GraphOptions holds flags for the graph command.
type GraphOptions struct {
	*RootOptions
	Kind string // optional - only nodes of this kind
}

// NodeInfo describes one installed node.
type NodeInfo struct {
	ID           string   `json:"id"`
	Kind         string   `json:"kind"`
	Scope        string   `json:"scope,omitempty"`
	Dependencies []string `json:"dependencies"`
	Dependents   []string `json:"dependents"`
}

// GraphResult is the graph command's output.
type GraphResult struct {
	Document string                  `json:"document"`
	Hash     string                  `json:"hash"`
	Nodes    []NodeInfo              `json:"nodes"`
	Warnings []compiler.CycleWarning `json:"warnings,omitempty"`
}

// NewGraphCommand creates the graph command.
func NewGraphCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GraphOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "graph <document>",
		Short: "Show the nodes and edges of a document",
		Long: `Define a document on a scratch graph and print its nodes in install
order with their kinds, fan-in and propagation targets. The hash
fingerprints the graph's shape (ids, kinds and edges, not values), so two
documents wiring the same graph print the same hash.

Events are not activated and no function runs.

Examples:
  cable graph ./app.yaml
  cable graph ./app.yaml --kind synthetic
  cable graph ./app.hcl --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show nodes of this kind")

	return cmd
}

func runGraph(opts *GraphOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
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

	hash, err := shapeHash(g)
	if err != nil {
		return formatter.fail(ExitFailure, ErrCodeGeneric, "failed to hash graph", err)
	}
	result := GraphResult{
		Document: path,
		Hash:     hash,
		Nodes:    describeNodes(g, opts.Kind),
		Warnings: compiler.Cycles(g),
	}
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputGraphText(formatter, result)
}

// describeNodes lists nodes in install order, filtered by kind when set.
func describeNodes(g *graph.Graph, kind string) []NodeInfo {
	nodes := []NodeInfo{}
	for _, n := range g.Nodes() {
		if kind != "" && n.Kind.String() != kind {
			continue
		}
		nodes = append(nodes, NodeInfo{
			ID:           n.ID,
			Kind:         n.Kind.String(),
			Scope:        n.Scope.String(),
			Dependencies: nonNil(n.Dependencies),
			Dependents:   nonNil(n.Dependents),
		})
	}
	return nodes
}

// shapeHash fingerprints every node's kind and fan-in.
func shapeHash(g *graph.Graph) (string, error) {
	shape := make(map[string]any, g.Len())
	for _, n := range g.Nodes() {
		deps := make([]any, len(n.Dependencies))
		for i, d := range n.Dependencies {
			deps[i] = d
		}
		shape[n.ID] = map[string]any{"kind": n.Kind.String(), "dependencies": deps}
	}
	return ir.GraphHash(shape)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func outputGraphText(formatter *OutputFormatter, result GraphResult) error {
	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tKIND\tDEPENDS ON\tPROPAGATES TO")
	for _, n := range result.Nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Kind, list(n.Dependencies), list(n.Dependents))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\nhash: %s\n", result.Hash)
	for _, warn := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "warning: %s\n", warn.Message)
	}
	return nil
}

func list(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ",")
}
