package store

// Cascade is one engine task: the unit a cascade token identifies.
type Cascade struct {
	Token  string
	Origin string // e.g. "set counter", "fire tick", "define"
	Seq    int64  // seq of the first record, or the clock when it started
	Error  string // empty when the cascade completed
}

// Record is one traced graph operation.
type Record struct {
	Seq       int64
	Cascade   string
	Op        string
	Node      string
	Kind      string
	Value     string // canonical JSON, "null" when absent
	ValueHash string
}
