// Package store provides the SQLite-backed trace log for cable runtimes.
//
// The log is append-only and holds two kinds of rows:
//   - Cascades: one row per engine task (a set, fire, call or define),
//     identified by a cascade token
//   - Trace records: every graph operation performed inside a cascade
//
// # Ordering
//
// All ordering uses seq INTEGER (the engine's logical clock), never
// timestamps. Every query includes ORDER BY seq ASC so reads are identical
// across runs.
//
// # Values
//
// Node values are stored as canonical JSON text (ir.Describe) together with
// a domain-separated SHA-256 hash, so two records with equal values compare
// equal as strings.
//
// The log is a development-time diagnostic. It is not used to restore graph
// state.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: trace rows must reference a cascade
package store
