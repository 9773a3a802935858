package store

import (
	"context"
	"fmt"
)

// WriteCascade inserts a cascade row. Duplicate tokens are ignored.
func (s *Store) WriteCascade(ctx context.Context, c Cascade) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cascades (token, origin, seq, error)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(token) DO NOTHING
	`, c.Token, c.Origin, c.Seq, c.Error)
	if err != nil {
		return fmt.Errorf("write cascade: %w", err)
	}
	return nil
}

// FailCascade records the error a cascade aborted with.
func (s *Store) FailCascade(ctx context.Context, token string, cause error) error {
	res, err := s.db.ExecContext(ctx, `UPDATE cascades SET error = ? WHERE token = ?`, cause.Error(), token)
	if err != nil {
		return fmt.Errorf("fail cascade: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("fail cascade: unknown token %q", token)
	}
	return nil
}

// WriteRecord appends a trace record. Uses ON CONFLICT(seq) DO NOTHING, so
// writing the same seq twice keeps the first record. The referenced cascade
// must exist.
func (s *Store) WriteRecord(ctx context.Context, r Record) error {
	if r.Value == "" {
		r.Value = "null"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trace (seq, cascade, op, node, kind, value, value_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, r.Seq, r.Cascade, r.Op, r.Node, r.Kind, r.Value, r.ValueHash)
	if err != nil {
		return fmt.Errorf("write record %d: %w", r.Seq, err)
	}
	return nil
}

// WriteRecords appends records in one transaction.
func (s *Store) WriteRecords(ctx context.Context, recs []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trace (seq, cascade, op, node, kind, value, value_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("write records: prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range recs {
		if r.Value == "" {
			r.Value = "null"
		}
		if _, err := stmt.ExecContext(ctx, r.Seq, r.Cascade, r.Op, r.Node, r.Kind, r.Value, r.ValueHash); err != nil {
			return fmt.Errorf("write record %d: %w", r.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write records: commit: %w", err)
	}
	return nil
}
