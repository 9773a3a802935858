package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/cable/internal/queryir"
	"github.com/roach88/cable/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Cascade  string // optional - one cascade's timeline
	Node     string   // optional - filter the timeline to one node
	Where    []string // optional - field/operator/value filters on the timeline
	Failed   bool     // only list cascades that ended in an error
}

// TraceEvent is a single record in the trace timeline.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	Op    string `json:"op"`
	Node  string `json:"node"`
	Kind  string `json:"kind"`
	Value string `json:"value,omitempty"`
}

// CascadeSummary describes one cascade in the log.
type CascadeSummary struct {
	Token  string         `json:"token"`
	Origin string         `json:"origin"`
	Seq    int64          `json:"seq"`
	Error  string         `json:"error,omitempty"`
	Counts map[string]int `json:"counts"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Cascades []CascadeSummary `json:"cascades"`
	Timeline []TraceEvent     `json:"timeline,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect the trace log",
		Long: `Inspect the trace log written by run and invoke.

Without --cascade, lists every cascade with its origin and per-operation
counts. With --cascade, also prints that cascade's timeline: each define,
set, evaluate, result, wireup and load in seq order. --node narrows the
timeline to one node; the cascade's counts still cover all of its records.

--where filters the timeline and may be repeated (filters are ANDed). Each
filter is field, operator, value. Operators are = != ^= (prefix) and, for
seq, < <= > >=. Fields are seq, cascade, op, node, kind, value, origin
and error. Values are canonical JSON, so strings are quoted: value="on".
Given without --cascade, --where searches the whole log.

Examples:
  cable trace --db ./cable.db
  cable trace --db ./cable.db --failed
  cable trace --db ./cable.db --cascade 0192f0c4-...
  cable trace --db ./cable.db --cascade 0192f0c4-... --node total --format json
  cable trace --db ./cable.db --where op=result --where node^=ui_`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Cascade, "cascade", "", "cascade token to show")
	cmd.Flags().StringVar(&opts.Node, "node", "", "only show timeline records for this node")
	cmd.Flags().StringArrayVar(&opts.Where, "where", nil, "filter timeline records (field=value, repeatable)")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only list cascades that failed")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	st, err := openStore(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	where, err := queryir.ParseWhere(queryir.TableTrace, opts.Where)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag, "invalid --where", err)
	}

	var cascades []store.Cascade
	switch {
	case opts.Cascade != "":
		c, err := st.ReadCascadeInfo(ctx, opts.Cascade)
		if errors.Is(err, sql.ErrNoRows) {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("cascade not found: %s", opts.Cascade), nil)
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read cascade", err)
		}
		cascades = []store.Cascade{c}
	case opts.Failed:
		cascades, err = st.QueryCascades(ctx, queryir.Select{
			From:   queryir.TableCascades,
			Filter: queryir.Not{Predicate: queryir.Equals{Field: "error", Value: ""}},
		})
	default:
		cascades, err = st.Cascades(ctx)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to list cascades", err)
	}

	result := TraceResult{Cascades: make([]CascadeSummary, 0, len(cascades))}
	for _, c := range cascades {
		counts, err := st.Counts(ctx, c.Token)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to count records", err)
		}
		result.Cascades = append(result.Cascades, CascadeSummary{
			Token:  c.Token,
			Origin: c.Origin,
			Seq:    c.Seq,
			Error:  c.Error,
			Counts: counts,
		})
	}

	showTimeline := opts.Cascade != "" || where != nil
	if showTimeline {
		var filters []queryir.Predicate
		if opts.Cascade != "" {
			filters = append(filters, queryir.Equals{Field: "cascade", Value: opts.Cascade})
		}
		if opts.Node != "" {
			filters = append(filters, queryir.Equals{Field: "node", Value: opts.Node})
		}
		filters = append(filters, where)
		recs, err := st.Query(ctx, queryir.Select{From: queryir.TableTrace, Filter: queryir.All(filters...)})
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeReadFailed, "failed to read trace", err)
		}
		result.Timeline = buildTimeline(recs)
	}

	if formatter.JSON() {
		return outputTraceJSON(formatter.Writer, result)
	}
	return outputTraceText(formatter.Writer, result, showTimeline)
}

// buildTimeline converts store records to timeline events.
func buildTimeline(recs []store.Record) []TraceEvent {
	timeline := []TraceEvent{}
	for _, r := range recs {
		ev := TraceEvent{Seq: r.Seq, Op: r.Op, Node: r.Node, Kind: r.Kind}
		if r.Value != "null" {
			ev.Value = r.Value
		}
		timeline = append(timeline, ev)
	}
	return timeline
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(w io.Writer, result TraceResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{Status: "ok", Data: result})
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, timeline bool) error {
	if len(result.Cascades) == 0 {
		fmt.Fprintln(w, "No cascades found.")
		return nil
	}

	for _, c := range result.Cascades {
		fmt.Fprintf(w, "%s  seq=%d  %s  %s\n", c.Token, c.Seq, c.Origin, formatCounts(c.Counts))
		if c.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n", c.Error)
		}
	}
	if !timeline {
		return nil
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no records)")
		return nil
	}
	for _, ev := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %-8s %s (%s)", ev.Seq, ev.Op, ev.Node, ev.Kind)
		if ev.Value != "" {
			fmt.Fprintf(w, " = %s", ev.Value)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// formatCounts renders op counts in a stable order, e.g. "evaluate=2 set=1".
func formatCounts(counts map[string]int) string {
	ops := make([]string, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	s := ""
	for i, op := range ops {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", op, counts[op])
	}
	return s
}
