// Package source fetches library and module source text for the graph.
//
// Every type here satisfies graph.Fetcher:
//   - HTTP: http(s) URLs through a cleanhttp pooled client
//   - FS: file:// URLs and plain paths on an afero filesystem
//   - Map: in-memory sources for tests and embedded documents
//   - Mux: dispatch by URL scheme
//   - Cache: bbolt-backed read-through cache in front of another fetcher
//
// Fetchers never retry and impose no timeout beyond the caller's context.
package source
