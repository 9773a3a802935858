package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/cable/internal/graph"
	"github.com/roach88/cable/internal/ir"
)

// AssertionError is a failed assertion with the trace it was checked
// against.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s %s\n", ev.Seq, ev.Cascade, ev.Op, ev.Node, ev.Value)
		}
	}
	return buf.String()
}

func opOrDefault(op, def string) string {
	if op == "" {
		return def
	}
	return op
}

// assertTraceCount checks that exactly Count records have the op and node.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	op := opOrDefault(a.Op, graph.OpEvaluate)
	count := 0
	for _, ev := range trace {
		if ev.Op == op && ev.Node == a.Node {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s records for %s", a.Count, op, a.Node),
			Actual:   fmt.Sprintf("%d records", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the first op record of each node appears in
// the listed order. Other records may come in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	op := opOrDefault(a.Op, graph.OpEvaluate)
	positions := make(map[string]int)
	for i, ev := range trace {
		if ev.Op != op {
			continue
		}
		if _, seen := positions[ev.Node]; !seen {
			positions[ev.Node] = i + 1
		}
	}

	for _, node := range a.Nodes {
		if positions[node] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%s records for all of %v", op, a.Nodes),
				Actual:   fmt.Sprintf("no %s record for %s", op, node),
				Trace:    trace,
			}
		}
	}
	for i := 1; i < len(a.Nodes); i++ {
		prev, curr := a.Nodes[i-1], a.Nodes[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("%s order %v", op, a.Nodes),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceContains checks for a record with the op and node whose value
// is Value. Values are compared in canonical JSON, so 6 matches 6.0.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	op := opOrDefault(a.Op, graph.OpResult)
	want, err := ir.MarshalCanonical(a.Value)
	if err != nil {
		return fmt.Errorf("trace_contains %s: %w", a.Node, err)
	}
	for _, ev := range trace {
		if ev.Op == op && ev.Node == a.Node && ev.Value == string(want) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s with value %s", op, a.Node, want),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertFinalValue resolves Node from the root scope and compares its
// cached value.
func assertFinalValue(result *Result, g *graph.Graph, a Assertion) error {
	id := a.Node
	if g != nil {
		if resolved, ok := g.Resolve(a.Node, nil); ok {
			id = resolved
		}
	}
	actual, ok := result.Values[id]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("a value for %s", a.Node),
			Actual:   "no such valued node",
		}
	}
	if !ir.Equal(a.Value, actual) {
		return &AssertionError{
			Type:     AssertFinalValue,
			Expected: fmt.Sprintf("%s = %s", a.Node, ir.Describe(a.Value)),
			Actual:   fmt.Sprintf("%s = %s", a.Node, ir.Describe(actual)),
		}
	}
	return nil
}

// EvaluateAssertions checks every assertion and returns a message per
// failure. g resolves names for final_value and may be nil, in which case
// names are taken as canonical ids.
func EvaluateAssertions(result *Result, assertions []Assertion, g *graph.Graph) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertFinalValue:
			err = assertFinalValue(result, g, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}
