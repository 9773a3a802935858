package harness

import "github.com/roach88/cable/internal/store"

// TraceEvent is one traced graph operation. Value is canonical JSON.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Cascade string `json:"cascade"`
	Op      string `json:"op"`
	Node    string `json:"node"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
}

func traceEvent(r store.Record) TraceEvent {
	return TraceEvent{
		Seq:     r.Seq,
		Cascade: r.Cascade,
		Op:      r.Op,
		Node:    r.Node,
		Kind:    r.Kind,
		Value:   r.Value,
	}
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace is the full record log in seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors describes each failed expectation or assertion.
	Errors []string `json:"errors,omitempty"`

	// Values holds the cached value of every node after the run, keyed
	// by canonical id.
	Values map[string]any `json:"values,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Values: make(map[string]any),
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
