// Package harness runs scenario files against a live engine and checks
// the resulting trace.
//
// # Scenario Format
//
//	name: counter_doubles
//	description: "Setting count re-runs doubled"
//	module: counter.yaml          # declaration document, relative to the scenario
//	nodes:                        # or an inline document
//	  count: 1
//	cascade_token: counter        # cascades are counter-1, counter-2, ...
//	max_steps: 100                # per-cascade evaluation quota
//	steps:
//	  - set: count
//	    value: 3
//	  - fire: clicks
//	    value: 1
//	  - call: items
//	    helper: append
//	    args: [x]
//	  - evaluate: doubled
//	    expect: {value: 6}
//	  - set: count
//	    value: oops
//	    expect: {error: "not a number"}
//	assertions:
//	  - type: trace_count
//	    op: evaluate
//	    node: doubled
//	    count: 2
//	  - type: trace_order
//	    op: set
//	    nodes: [count, clicks]
//	  - type: trace_contains
//	    op: result
//	    node: doubled
//	    value: 6
//	  - type: final_value
//	    node: doubled
//	    value: 6
//
// The define of the document is the first cascade. Each step is one more.
// After the last step the engine is drained and stopped, so results
// delivered late are part of the trace before assertions run.
//
// # Determinism
//
// Every run uses an in-memory SQLite store, a fresh logical clock and
// sequential cascade tokens, so the same scenario yields the same trace.
// RunWithGolden compares that trace with testdata/golden/<name>.golden.
package harness
