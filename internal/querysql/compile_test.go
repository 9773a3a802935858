package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cable/internal/queryir"
)

func TestCompile_TraceNoFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: queryir.TableTrace})
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+TraceColumns+
		" FROM trace INNER JOIN cascades ON cascades.token = trace.cascade"+
		" ORDER BY trace.seq ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_CascadesNoFilter(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(&queryir.Select{From: queryir.TableCascades})
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+CascadeColumns+
		" FROM cascades ORDER BY cascades.seq ASC, cascades.token COLLATE BINARY ASC", sql)
	assert.Empty(t, params)
}

func TestCompile_Predicates(t *testing.T) {
	tests := []struct {
		name       string
		filter     queryir.Predicate
		wantWhere  string
		wantParams []any
	}{
		{
			name:       "equals",
			filter:     queryir.Equals{Field: "op", Value: "set"},
			wantWhere:  "trace.op = ?",
			wantParams: []any{"set"},
		},
		{
			name:       "equals pointer",
			filter:     &queryir.Equals{Field: "seq", Value: int64(3)},
			wantWhere:  "trace.seq = ?",
			wantParams: []any{int64(3)},
		},
		{
			name:       "prefix counts runes",
			filter:     queryir.Prefix{Field: "node", Prefix: "é_"},
			wantWhere:  "substr(trace.node, 1, ?) = ?",
			wantParams: []any{2, "é_"},
		},
		{
			name:       "compare",
			filter:     queryir.Compare{Field: "seq", Op: queryir.OpGreaterEqual, Value: 7},
			wantWhere:  "trace.seq >= ?",
			wantParams: []any{int64(7)},
		},
		{
			name:       "not",
			filter:     queryir.Not{Predicate: queryir.Equals{Field: "kind", Value: "data"}},
			wantWhere:  "NOT (trace.kind = ?)",
			wantParams: []any{"data"},
		},
		{
			name:       "joined field",
			filter:     queryir.Prefix{Field: "origin", Prefix: "set "},
			wantWhere:  "substr(cascades.origin, 1, ?) = ?",
			wantParams: []any{4, "set "},
		},
		{
			name:      "empty and",
			filter:    queryir.And{},
			wantWhere: "1 = 1",
		},
		{
			name: "and",
			filter: &queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Field: "op", Value: "result"},
				queryir.Compare{Field: "seq", Op: queryir.OpLess, Value: 10},
			}},
			wantWhere:  "(trace.op = ?) AND (trace.seq < ?)",
			wantParams: []any{"result", int64(10)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(queryir.Select{From: queryir.TableTrace, Filter: tt.filter})
			require.NoError(t, err)

			assert.Contains(t, sql, " WHERE "+tt.wantWhere+" ORDER BY")
			assert.Equal(t, tt.wantParams, params)
		})
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:   queryir.TableTrace,
		Filter: queryir.Equals{Field: "node", Value: "x'; DROP TABLE trace; --"},
	})
	require.NoError(t, err)

	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"x'; DROP TABLE trace; --"}, params)
}

func TestCompile_Limit(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		From:   queryir.TableCascades,
		Filter: queryir.Not{Predicate: queryir.Equals{Field: "error", Value: ""}},
		Limit:  3,
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT "+CascadeColumns+
		" FROM cascades WHERE NOT (cascades.error = ?)"+
		" ORDER BY cascades.seq ASC, cascades.token COLLATE BINARY ASC LIMIT ?", sql)
	assert.Equal(t, []any{"", 3}, params)
}

func TestCompile_InvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil", nil, "nil query"},
		{"unknown table", queryir.Select{From: "nodes"}, "unknown table"},
		{"unknown field", queryir.Select{From: queryir.TableCascades, Filter: queryir.Equals{Field: "node", Value: "x"}}, "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := NewSQLCompiler().Compile(tt.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	q := queryir.Select{From: queryir.TableTrace, Filter: queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: "cascade", Value: "c1"},
		queryir.Prefix{Field: "node", Prefix: "ui"},
	}}}

	sql1, params1, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	sql2, params2, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Equal(t, sql1, sql2)
	assert.Equal(t, params1, params2)
}
