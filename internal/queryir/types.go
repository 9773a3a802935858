package queryir

import "sort"

// Query is a query over the trace log. Sealed to this package.
type Query interface {
	queryNode()
}

// Predicate is a row filter. Sealed to this package.
//
// Predicate types:
//   - Equals: field = literal
//   - Prefix: field starts with a string
//   - Compare: integer field against a bound
//   - Not: negation of another predicate
//   - And: all predicates must hold
type Predicate interface {
	predicateNode()
}

// Table names.
const (
	TableTrace    = "trace"
	TableCascades = "cascades"
)

// Select reads rows from a table.
//
// Semantics:
//
//	SELECT * FROM <from> WHERE <filter> ORDER BY seq LIMIT <limit>
//
// Example:
//
//	Select{
//	  From: TableTrace,
//	  Filter: And{Predicates: []Predicate{
//	    Equals{Field: "op", Value: "evaluate"},
//	    Prefix{Field: "node", Prefix: "ui_"},
//	  }},
//	}
type Select struct {
	From   string    // TableTrace or TableCascades
	Filter Predicate // nil = no filter
	Limit  int       // 0 = unlimited
}

func (Select) queryNode() {}

// Equals matches rows whose field equals Value.
// Value is a string for text fields and an int64 for integer fields.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Prefix matches rows whose text field starts with Prefix.
// Matching is case-sensitive.
type Prefix struct {
	Field  string
	Prefix string
}

func (Prefix) predicateNode() {}

// Comparison operators for Compare.
const (
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
)

// Compare matches rows whose integer field satisfies Op against Value.
//
// Example:
//
//	Compare{Field: "seq", Op: OpGreater, Value: 10}
type Compare struct {
	Field string
	Op    string
	Value int64
}

func (Compare) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// And is a conjunction. Empty means always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// FieldType is the storage type of a queryable field.
type FieldType int

const (
	Text FieldType = iota
	Integer
)

func (t FieldType) String() string {
	if t == Integer {
		return "integer"
	}
	return "text"
}

var schema = map[string]map[string]FieldType{
	TableTrace: {
		"seq":     Integer,
		"cascade": Text,
		"op":      Text,
		"node":    Text,
		"kind":    Text,
		"value":   Text,
		"origin":  Text,
		"error":   Text,
	},
	TableCascades: {
		"token":  Text,
		"origin": Text,
		"seq":    Integer,
		"error":  Text,
	},
}

// Field reports the type of a field in table.
func Field(table, name string) (FieldType, bool) {
	fields, ok := schema[table]
	if !ok {
		return 0, false
	}
	t, ok := fields[name]
	return t, ok
}

// Fields lists a table's field names, sorted.
func Fields(table string) []string {
	fields := schema[table]
	out := make([]string, 0, len(fields))
	for name := range fields {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All conjoins predicates, dropping nils. It returns nil when nothing is
// left and the single predicate when only one is.
func All(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
