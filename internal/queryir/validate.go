package queryir

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult lists the problems found in a query.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	Problems []string
}

// Err returns the problems as a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks a query against the table schema: the table exists, every
// field exists in it, values match field types and Compare is only used on
// integer fields.
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{problems: []string{}}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	table    string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if _, ok := schema[sel.From]; !ok {
		v.addProblem("unknown table %q: want %s or %s", sel.From, TableTrace, TableCascades)
		return
	}
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	v.table = sel.From
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

// field looks up a field, recording a problem when it is missing.
func (v *validator) field(name string) (FieldType, bool) {
	t, ok := Field(v.table, name)
	if !ok {
		v.addProblem("unknown field %q in %s", name, v.table)
	}
	return t, ok
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Prefix:
		v.validatePrefix(pred)
	case *Prefix:
		v.validatePrefix(*pred)
	case Compare:
		v.validateCompare(pred)
	case *Compare:
		v.validateCompare(*pred)
	case Not:
		v.validateNot(pred)
	case *Not:
		v.validateNot(*pred)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	t, ok := v.field(eq.Field)
	if !ok {
		return
	}
	switch eq.Value.(type) {
	case string:
		if t != Text {
			v.addProblem("field %q is %s, got string value", eq.Field, t)
		}
	case int64:
		if t != Integer {
			v.addProblem("field %q is %s, got integer value", eq.Field, t)
		}
	default:
		v.addProblem("field %q: unsupported value type %T", eq.Field, eq.Value)
	}
}

func (v *validator) validatePrefix(p Prefix) {
	t, ok := v.field(p.Field)
	if !ok {
		return
	}
	if t != Text {
		v.addProblem("prefix match on %s field %q", t, p.Field)
	}
	if p.Prefix == "" {
		v.addProblem("empty prefix for field %q", p.Field)
	}
}

func (v *validator) validateCompare(c Compare) {
	t, ok := v.field(c.Field)
	if !ok {
		return
	}
	if t != Integer {
		v.addProblem("comparison on %s field %q", t, c.Field)
	}
	switch c.Op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
	default:
		v.addProblem("unknown comparison %q", c.Op)
	}
}

func (v *validator) validateNot(n Not) {
	if n.Predicate == nil {
		v.addProblem("negation of nil predicate")
		return
	}
	v.validatePredicate(n.Predicate)
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}
