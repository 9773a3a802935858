package querysql

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/cable/internal/queryir"
)

// TraceColumns is the column list of a compiled trace query, in the order
// store.Record scans them.
const TraceColumns = "trace.seq, trace.cascade, trace.op, trace.node, trace.kind, trace.value, trace.value_hash"

// CascadeColumns is the column list of a compiled cascades query.
const CascadeColumns = "cascades.token, cascades.origin, cascades.seq, cascades.error"

// columns maps query fields to qualified SQL columns per table.
var columns = map[string]map[string]string{
	queryir.TableTrace: {
		"seq":     "trace.seq",
		"cascade": "trace.cascade",
		"op":      "trace.op",
		"node":    "trace.node",
		"kind":    "trace.kind",
		"value":   "trace.value",
		"origin":  "cascades.origin",
		"error":   "cascades.error",
	},
	queryir.TableCascades: {
		"token":  "cascades.token",
		"origin": "cascades.origin",
		"seq":    "cascades.seq",
		"error":  "cascades.error",
	},
}

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every query is ordered by seq. Every value is a ? parameter, never
// interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to SQL.
// Returns (sql, params, error).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	cols := columns[q.From]

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(cols, q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	var sql string
	switch q.From {
	case queryir.TableTrace:
		// Every trace row has a cascade row, so the inner join drops nothing.
		sql = "SELECT " + TraceColumns +
			" FROM trace INNER JOIN cascades ON cascades.token = trace.cascade" +
			whereClause +
			" ORDER BY trace.seq ASC"
	default:
		sql = "SELECT " + CascadeColumns +
			" FROM cascades" +
			whereClause +
			" ORDER BY cascades.seq ASC, cascades.token COLLATE BINARY ASC"
	}

	if q.Limit > 0 {
		sql += " LIMIT ?"
		params = append(params, q.Limit)
	}
	return sql, params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
func (c *SQLCompiler) compilePredicate(cols map[string]string, p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return cols[pred.Field] + " = ?", []any{pred.Value}, nil
	case *queryir.Equals:
		return c.compilePredicate(cols, *pred)
	case queryir.Prefix:
		// substr counts characters, so the length parameter is a rune count.
		return "substr(" + cols[pred.Field] + ", 1, ?) = ?",
			[]any{utf8.RuneCountInString(pred.Prefix), pred.Prefix}, nil
	case *queryir.Prefix:
		return c.compilePredicate(cols, *pred)
	case queryir.Compare:
		return cols[pred.Field] + " " + pred.Op + " ?", []any{pred.Value}, nil
	case *queryir.Compare:
		return c.compilePredicate(cols, *pred)
	case queryir.Not:
		sql, params, err := c.compilePredicate(cols, pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case *queryir.Not:
		return c.compilePredicate(cols, *pred)
	case queryir.And:
		return c.compileAnd(cols, pred)
	case *queryir.And:
		return c.compileAnd(cols, *pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileAnd joins sub-predicates with AND, parenthesizing each.
func (c *SQLCompiler) compileAnd(cols map[string]string, and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(cols, pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		allParams = append(allParams, params...)
	}
	return strings.Join(parts, " AND "), allParams, nil
}
