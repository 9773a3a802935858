// Package engine runs a dependency graph on a single goroutine.
//
// The graph package is not safe for concurrent use. The engine owns one
// graph and applies every mutation to it from its Run loop:
//
//  1. Callers submit tasks with Post (fire and forget) or Do (wait for the
//     result), from any goroutine.
//  2. Run dequeues tasks one at a time, in FIFO order.
//  3. Each task is a cascade: it gets a fresh cascade token, a step quota
//     and a context carrying both.
//  4. Results and event fires that arrive after their synchronous window
//     come back through Schedule and become cascades of their own.
//
// Every traced graph operation is stamped with a logical clock seq and the
// cascade token, then written to the optional trace store. A failed store
// write is logged and the cascade continues. A failed task is logged with
// its cascade and origin, recorded on the cascade, and the loop moves on.
//
// Never use wall-clock timestamps for ordering; seq is the only order of
// the trace. An engine reopening a trace starts after its last seq
// (WithStartSeq).
package engine
