package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/cable/internal/ir"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Cascade  string // optional - fold one cascade only
}

// ReplayNode is one node's folded state.
type ReplayNode struct {
	Node    string `json:"node"`
	Value   string `json:"value"`
	Changes int    `json:"changes"`
}

// ReplayResult holds the folded log.
type ReplayResult struct {
	Cascade string       `json:"cascade,omitempty"`
	Nodes   []ReplayNode `json:"nodes"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild node values from the trace log",
		Long: `Fold the set and result records of the trace log into each node's last
value, with the number of times it changed.

Only value-changing records are replayed; nothing is re-evaluated.

Examples:
  cable replay --db ./cable.db
  cable replay --db ./cable.db --cascade 0192f0c4-...
  cable replay --db ./cable.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Cascade, "cascade", "", "replay one cascade only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	values, err := st.FinalValues(ctx, opts.Cascade)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to replay log", err)
	}
	changes := map[string]int{}
	if opts.Cascade == "" {
		changes, err = st.Changes(ctx)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to count changes", err)
		}
	} else {
		recs, err := st.ReadCascade(ctx, opts.Cascade)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read cascade", err)
		}
		for _, r := range recs {
			if r.Op == "set" || r.Op == "result" {
				changes[r.Node]++
			}
		}
	}

	result := ReplayResult{Cascade: opts.Cascade, Nodes: []ReplayNode{}}
	for _, node := range ir.SortedKeys(values) {
		result.Nodes = append(result.Nodes, ReplayNode{Node: node, Value: values[node], Changes: changes[node]})
	}

	if formatter.JSON() {
		return outputReplayJSON(formatter.Writer, result)
	}
	return outputReplayText(formatter.Writer, result)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(w io.Writer, result ReplayResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result, Cascade: result.Cascade})
}

// outputReplayText outputs the replay result as text.
func outputReplayText(w io.Writer, result ReplayResult) error {
	if len(result.Nodes) == 0 {
		fmt.Fprintln(w, "No values recorded.")
		return nil
	}
	for _, n := range result.Nodes {
		fmt.Fprintf(w, "%s = %s (%d change(s))\n", n.Node, n.Value, n.Changes)
	}
	return nil
}
