// Package graph implements the cable reactive dependency-graph runtime.
//
// Callers declare named nodes (data cells, synthetic values, effects,
// events, libraries, aliases, modules and nested scopes). Each computation
// node lists its parameters explicitly; the parameter names are the
// data-flow edges. The runtime resolves those names into a directed graph
// and propagates value changes along it.
//
// ARCHITECTURE:
//
// Definition Flow:
//  1. Define installs every declaration (sorted by name) into the registry
//  2. Module placeholders are fetched and replaced by their compiled source
//  3. Reify rebuilds every node's dependents from the declared parameters
//  4. Subdefinitions run once, may install new nodes, and are removed
//  5. Reify runs again to capture the new nodes
//  6. Wireup activates every event node exactly once
//
// Propagation Flow:
//  1. A data or event accessor is set to a new value
//  2. TriggerDownstream evaluates each dependent in order, depth first
//  3. A synthetic's Result re-propagates unless coalescing suppresses it
//
// Parameter conventions:
//   - result / respond select a synthetic; respond never coalesces
//   - define selects a subdefinition; a lone event selects an event
//   - a leading underscore marks a lazy dependency: the handle is passed
//     but the edge does not propagate
//
// CONCURRENCY:
//
// A Graph is single-threaded. All mutation happens on one goroutine; the
// engine package provides the loop. Results and event fires that arrive
// after the synchronous call returned are handed to the Scheduler, which
// runs them back on the owning goroutine. The only blocking operations
// are library and module fetches.
package graph
