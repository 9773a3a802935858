// Package testutil holds fixtures shared by tests across packages: a
// resettable logical clock, a graph tracer that keeps records in memory,
// and temporary trace stores.
package testutil
