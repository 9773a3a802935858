// Package helpers builds common declarations: counters, lists, packs,
// library and alias shorthands, and time-driven events.
//
// Everything here is expressed with graph declarations only, so a helper
// can be mixed into any Declarations or Scope literal:
//
//	decls := graph.Declarations{
//		"ids":   helpers.Counter(),
//		"todos": helpers.List(nil),
//		"tick":  helpers.Interval(time.Second, true),
//		"state": helpers.Pack("ids", "todos"),
//	}
//
// The time-driven events fire from their own goroutines, so they need a
// graph with a Scheduler (an engine) and stop when the graph is closed.
package helpers
