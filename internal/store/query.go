package store

import (
	"context"
	"fmt"

	"github.com/roach88/cable/internal/queryir"
	"github.com/roach88/cable/internal/querysql"
)

// Query runs a trace query and returns matching records in seq order.
func (s *Store) Query(ctx context.Context, q queryir.Select) ([]Record, error) {
	if q.From != queryir.TableTrace {
		return nil, fmt.Errorf("query records: table %q is not %s", q.From, queryir.TableTrace)
	}
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, err
	}
	return s.queryRecords(ctx, query, params...)
}

// QueryCascades runs a cascades query.
func (s *Store) QueryCascades(ctx context.Context, q queryir.Select) ([]Cascade, error) {
	if q.From != queryir.TableCascades {
		return nil, fmt.Errorf("query cascades: table %q is not %s", q.From, queryir.TableCascades)
	}
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, err
	}
	return s.queryCascades(ctx, query, params...)
}
