// Package ir provides the value layer shared by the graph runtime, the trace
// store and the test harness.
//
// Node values are untyped (any). This package decides what "the same value"
// means for coalescing (Equal) and how a value is rendered for the trace log
// (MarshalCanonical, Describe, ValueHash).
//
// ir imports nothing internal; every other package may import it.
package ir
