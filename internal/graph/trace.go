package graph

import "context"

// Trace operations.
const (
	OpDefine   = "define"
	OpRemove   = "remove"
	OpSet      = "set"
	OpResult   = "result"
	OpEvaluate = "evaluate"
	OpWireup   = "wireup"
	OpLoad     = "load"
)

// Record describes one observable graph operation.
type Record struct {
	Op    string
	Node  string
	Kind  Kind
	Value any
}

// Tracer receives a record for every define, remove, set, result,
// evaluate, wireup and load.
type Tracer interface {
	Record(ctx context.Context, rec Record)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(ctx context.Context, rec Record)

// Record implements Tracer.
func (f TracerFunc) Record(ctx context.Context, rec Record) {
	f(ctx, rec)
}

func (g *Graph) trace(ctx context.Context, op string, n *Node, value any) {
	if g.tracer == nil {
		return
	}
	g.tracer.Record(ctx, Record{Op: op, Node: n.ID, Kind: n.Kind, Value: value})
}
