// Package compiler turns declaration documents into graph declarations.
//
// A document is a tree of named entries written in YAML, CUE, JSON or HCL.
// Each entry compiles to one graph.Spec:
//
//	count: 0                              # data (any non-map value)
//	config: {type: data, value: {a: 1}}   # data holding a map, with helpers
//	tick: {type: event, source: interval, period: 1s}
//	doubled: {fn: mul, params: [count, two]}
//	report: {fn: log, params: [doubled], effect: true}
//	lib: {type: library, path: "https://example.com/lib.json", shim: json}
//	remote: {type: module, url: "file://remote.yaml"}
//	other: {type: alias, reference: count}
//	panel: {title: "x", main: 1}          # any other map is a scope
//
// Function bodies are never part of a document: fn names a Function in a
// Catalog, which also holds data helpers, library shims and library
// factories.
//
// The Compiler is the graph.Interpreter for modules and libraries: a module
// source compiles to a scope, and a library source is either passed through
// a shim or read as a manifest naming a factory.
//
// Every problem in a document is reported, not just the first; the errors
// are collected with go-multierror and wrapped in an IllegalDefinition.
package compiler
