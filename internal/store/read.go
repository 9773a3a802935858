package store

import (
	"context"
	"database/sql"
	"fmt"
)

const recordColumns = `seq, cascade, op, node, kind, value, value_hash`

// ReadCascade returns every record of a cascade, ordered by seq.
// Returns an empty slice (not nil) if the cascade has no records.
func (s *Store) ReadCascade(ctx context.Context, token string) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM trace
		WHERE cascade = ?
		ORDER BY seq ASC
	`, token)
}

// ReadAll returns every record in the log, ordered by seq.
func (s *Store) ReadAll(ctx context.Context) ([]Record, error) {
	return s.queryRecords(ctx, `
		SELECT `+recordColumns+`
		FROM trace
		ORDER BY seq ASC
	`)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Seq, &r.Cascade, &r.Op, &r.Node, &r.Kind, &r.Value, &r.ValueHash); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace: %w", err)
	}
	return recs, nil
}

// Cascades lists every cascade, ordered by seq.
func (s *Store) Cascades(ctx context.Context) ([]Cascade, error) {
	return s.queryCascades(ctx, `
		SELECT token, origin, seq, error
		FROM cascades
		ORDER BY seq ASC, token COLLATE BINARY ASC
	`)
}

func (s *Store) queryCascades(ctx context.Context, query string, args ...any) ([]Cascade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cascades: %w", err)
	}
	defer rows.Close()

	out := []Cascade{}
	for rows.Next() {
		var c Cascade
		if err := rows.Scan(&c.Token, &c.Origin, &c.Seq, &c.Error); err != nil {
			return nil, fmt.Errorf("scan cascade: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cascades: %w", err)
	}
	return out, nil
}

// ReadCascadeInfo returns a single cascade row.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadCascadeInfo(ctx context.Context, token string) (Cascade, error) {
	var c Cascade
	err := s.db.QueryRowContext(ctx, `
		SELECT token, origin, seq, error FROM cascades WHERE token = ?
	`, token).Scan(&c.Token, &c.Origin, &c.Seq, &c.Error)
	if err != nil {
		return Cascade{}, err
	}
	return c, nil
}

// Counts returns the number of records per op for a cascade. An empty
// token counts the whole log.
func (s *Store) Counts(ctx context.Context, token string) (map[string]int, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if token == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT op, COUNT(*) FROM trace GROUP BY op`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT op, COUNT(*) FROM trace WHERE cascade = ? GROUP BY op`, token)
	}
	if err != nil {
		return nil, fmt.Errorf("count trace: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var op string
		var n int
		if err := rows.Scan(&op, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[op] = n
	}
	return counts, rows.Err()
}

// LastSeq returns the highest seq in the log, or 0 when empty. The engine
// resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (
			SELECT seq FROM trace
			UNION ALL
			SELECT seq FROM cascades
		)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}
