package store

import (
	"context"
	"fmt"
)

// valueOps are the operations that change a node's value.
var valueOps = map[string]bool{"set": true, "result": true}

// FinalValues folds the value-changing records of a cascade (or of the
// whole log when token is empty) into each node's last value, as canonical
// JSON text.
func (s *Store) FinalValues(ctx context.Context, token string) (map[string]string, error) {
	var (
		recs []Record
		err  error
	)
	if token == "" {
		recs, err = s.ReadAll(ctx)
	} else {
		recs, err = s.ReadCascade(ctx, token)
	}
	if err != nil {
		return nil, fmt.Errorf("final values: %w", err)
	}

	values := make(map[string]string)
	for _, r := range recs {
		if valueOps[r.Op] {
			values[r.Node] = r.Value
		}
	}
	return values, nil
}

// Changes counts value changes per node across the whole log.
func (s *Store) Changes(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node, COUNT(*) FROM trace
		WHERE op IN ('set', 'result')
		GROUP BY node
	`)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var node string
		var n int
		if err := rows.Scan(&node, &n); err != nil {
			return nil, fmt.Errorf("scan changes: %w", err)
		}
		out[node] = n
	}
	return out, rows.Err()
}
