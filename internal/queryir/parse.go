package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// operators in match order: two-character operators first.
var operators = []string{"!=", "^=", ">=", "<=", "=", ">", "<"}

// ParseWhere turns command-line filter expressions into a predicate over
// table. Each expression is field, operator, value:
//
//	op=evaluate      equality
//	kind!=data       inequality
//	node^=ui_        prefix
//	seq>=10          integer comparison (<, <=, >, >=)
//
// Expressions are conjoined. Every malformed expression is reported.
// A nil predicate is returned for no expressions.
func ParseWhere(table string, exprs []string) (Predicate, error) {
	if _, ok := schema[table]; !ok {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	var errs *multierror.Error
	preds := make([]Predicate, 0, len(exprs))
	for _, expr := range exprs {
		p, err := parseExpr(table, expr)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		preds = append(preds, p)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return All(preds...), nil
}

func parseExpr(table, expr string) (Predicate, error) {
	i := strings.IndexAny(expr, "!^<>=")
	if i <= 0 {
		return nil, fmt.Errorf("%q: want field, operator and value", expr)
	}
	field, rest := expr[:i], expr[i:]
	op := ""
	for _, candidate := range operators {
		if strings.HasPrefix(rest, candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return nil, fmt.Errorf("%q: unknown operator", expr)
	}
	raw := rest[len(op):]

	t, ok := Field(table, field)
	if !ok {
		return nil, fmt.Errorf("%q: unknown field %q (have %s)", expr, field, strings.Join(Fields(table), ", "))
	}

	switch op {
	case "^=":
		if t != Text {
			return nil, fmt.Errorf("%q: prefix match needs a text field", expr)
		}
		if raw == "" {
			return nil, fmt.Errorf("%q: empty prefix", expr)
		}
		return Prefix{Field: field, Prefix: raw}, nil
	case "=", "!=":
		var eq Equals
		if t == Integer {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q: %s is an integer field", expr, field)
			}
			eq = Equals{Field: field, Value: n}
		} else {
			eq = Equals{Field: field, Value: raw}
		}
		if op == "!=" {
			return Not{Predicate: eq}, nil
		}
		return eq, nil
	default:
		if t != Integer {
			return nil, fmt.Errorf("%q: comparison needs an integer field", expr)
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: want an integer", expr)
		}
		return Compare{Field: field, Op: op, Value: n}, nil
	}
}
