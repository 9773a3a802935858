// Package queryir is a small query representation over the trace log.
//
// Queries select rows from one of two tables:
//
//	trace     seq, cascade, op, node, kind, value (plus origin and error
//	          of the owning cascade)
//	cascades  token, origin, seq, error
//
// and filter them with a closed set of predicates:
//
//	Equals    field = value
//	Prefix    field starts with prefix
//	Compare   integer field <, <=, >, >= value
//	Not       negation
//	And       conjunction (empty = always true)
//
// There is no OR. Two filters that need OR are two queries.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods so backends can switch
// over every case:
//
//	switch p := pred.(type) {
//	case Equals:
//	case Prefix:
//	case Compare:
//	case Not:
//	case And:
//	}
//
// Values are restricted to string and int64. Stored values are canonical
// JSON text, so a filter on the value field compares that text: value=5
// matches the number 5 and value="on" matches the string "on".
//
// Backends live elsewhere. querysql compiles a Select to parameterized
// SQLite with a deterministic seq order.
package queryir
