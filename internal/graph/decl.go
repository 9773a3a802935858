package graph

// Spec is a declaration accepted by Define. The implementations in this
// package are the complete set.
type Spec interface {
	spec()
}

// Declarations maps local names to declarations. Define installs them in
// sorted name order.
type Declarations map[string]Spec

// Helper is a named operation attached to a Data node, invoked through
// Accessor.Call.
type Helper func(a *Accessor, args ...any) (any, error)

// Data declares a plain mutable value.
type Data struct {
	Value   any
	Helpers map[string]Helper
}

// Func declares a computation node. Params lists the parameter names the
// body receives, in order; they double as the node's dependency edges.
//
// The reserved parameters select the node kind: result or respond makes a
// synthetic, define makes a subdefinition and a lone event makes an event.
// Anything else is an effect.
type Func struct {
	Params []string
	Body   func(*Call) error
}

// Event declares an externally driven source. Wireup runs once; it may fire
// immediately and may keep the Emitter to fire later.
type Event struct {
	Wireup   func(*Emitter) error
	Default  any
	Coalesce bool
}

// Library declares an external module loaded on first use.
type Library struct {
	Path string
	Shim string
}

// Module declares a remote declaration document substituted before
// reification.
type Module struct {
	URL string
}

// Alias redirects lookups to another name.
type Alias struct {
	Reference string
}

// Scope groups nested declarations under a common prefix. The member named
// "main" takes the scope's own name.
type Scope Declarations

func (Data) spec()    {}
func (Func) spec()    {}
func (Event) spec()   {}
func (Library) spec() {}
func (Module) spec()  {}
func (Alias) spec()   {}
func (Scope) spec()   {}

// classify picks a function declaration's kind from its parameters.
func classify(params []string) Kind {
	for _, p := range params {
		if p == paramResult || p == paramRespond {
			return KindSynthetic
		}
	}
	for _, p := range params {
		if p == paramDefine {
			return KindSubdefinition
		}
	}
	if len(params) == 1 && params[0] == paramEvent {
		return KindEvent
	}
	return KindEffect
}
