package testutil

import (
	"context"
	"sync"

	"github.com/roach88/cable/internal/graph"
)

// Entry is a graph.Record stamped with its position in the run.
type Entry struct {
	Seq int64
	graph.Record
}

// Tracer is a graph.Tracer that keeps every record in memory. Use it to
// check what a graph did without an engine or a store.
type Tracer struct {
	clock   *DeterministicClock
	mu      sync.Mutex
	entries []Entry
}

// NewTracer creates an empty tracer.
func NewTracer() *Tracer {
	return &Tracer{clock: NewDeterministicClock()}
}

// Record implements graph.Tracer.
func (t *Tracer) Record(_ context.Context, rec graph.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, Entry{Seq: t.clock.Next(), Record: rec})
}

// Entries returns a copy of the records so far.
func (t *Tracer) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Entry(nil), t.entries...)
}

// Count returns how many records have op and node. An empty node matches
// every node.
func (t *Tracer) Count(op, node string) int {
	n := 0
	for _, e := range t.Entries() {
		if e.Op == op && (node == "" || e.Node == node) {
			n++
		}
	}
	return n
}

// Nodes lists, in order, the node of every record with op.
func (t *Tracer) Nodes(op string) []string {
	out := []string{}
	for _, e := range t.Entries() {
		if e.Op == op {
			out = append(out, e.Node)
		}
	}
	return out
}

// Reset drops the records and rewinds the clock.
func (t *Tracer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	t.clock.Reset()
}
