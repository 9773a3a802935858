package graph

import "strings"

// Separator joins scope segments and local names into canonical ids.
const Separator = "_"

// Kind identifies the variant of a node.
type Kind int

const (
	KindData Kind = iota
	KindSynthetic
	KindEffect
	KindEvent
	KindLibrary
	KindScope
	KindSubdefinition
	KindAlias
	KindModule
)

var kindNames = [...]string{
	KindData:          "data",
	KindSynthetic:     "synthetic",
	KindEffect:        "effect",
	KindEvent:         "event",
	KindLibrary:       "library",
	KindScope:         "scope",
	KindSubdefinition: "subdefinition",
	KindAlias:         "alias",
	KindModule:        "module",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Chain is a lexical scope chain, outermost segment first.
type Chain []string

// String joins the chain with Separator.
func (c Chain) String() string {
	return strings.Join(c, Separator)
}

// Append returns a new chain with seg pushed; c is never modified.
func (c Chain) Append(seg string) Chain {
	out := make(Chain, len(c), len(c)+1)
	copy(out, c)
	return append(out, seg)
}

// Node is a registry entry. Fields that do not apply to a node's kind are
// left zero.
type Node struct {
	ID    string
	Kind  Kind
	Scope Chain

	// Value is the cached value of Data, Event and Synthetic nodes.
	Value any

	// Invoked is set once a Synthetic produced a value or an Event fired.
	Invoked bool

	// Params is the declared parameter list, reserved words included.
	Params []string

	// Dependencies is the fan-in list (reserved words removed, lazy
	// markers stripped). Fixed at install time.
	Dependencies []string

	// Dependents holds ids of nodes that eagerly depend on this one.
	// Rebuilt by every reification.
	Dependents []string

	// Synthetic and Event.
	ResultIndex int
	Coalesce    bool

	// Event.
	WiredUp bool
	Default any

	// Library.
	Path   string
	Shim   string
	Handle any
	Loaded bool

	// Alias.
	Reference string

	// Module.
	URL string

	// Subdefinition.
	DefineIndex int

	// Data.
	Helpers map[string]Helper

	body         func(*Call) error
	wireup       func(*Emitter) error
	loading      bool
	propagations int
}

func (n *Node) hasBody() bool {
	switch n.Kind {
	case KindSynthetic, KindEffect, KindSubdefinition:
		return true
	}
	return false
}
