package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
)

// WriteReport stores a checked report, its source text and all of its
// chunks in one transaction.
//
// Idempotency: re-writing a report with the same ID is a no-op. Chunk
// rows are content-addressed, so a replayed write stores nothing new.
func (s *Store) WriteReport(ctx context.Context, report *document.Report, source string) error {
	if report == nil {
		return fmt.Errorf("write report: nil report")
	}
	if report.ID == "" {
		return fmt.Errorf("write report: empty report ID")
	}

	stack, err := marshalStack(report.Stack)
	if err != nil {
		return fmt.Errorf("write report %s: %w", report.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, seq, document_hash, source, stack, script, fatal)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, report.ID, report.Seq, report.DocumentHash, source, stack, report.Script, boolToInt(hasFatal(report.Chunks)))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", report.ID, err)
	}

	for i, ch := range report.Chunks {
		if err := writeChunk(ctx, tx, report.ID, i, ch); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit report %s: %w", report.ID, err)
	}
	return nil
}

func writeChunk(ctx context.Context, tx *sql.Tx, documentID string, idx int, ch document.Chunk) error {
	id, err := ir.ChunkID(documentID, idx, string(ch.Kind), ch.TacticID, ch.Values)
	if err != nil {
		return fmt.Errorf("chunk %d: %w", idx, err)
	}
	values, err := marshalValues(ch.Values)
	if err != nil {
		return fmt.Errorf("chunk %d: %w", idx, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chunks (id, document_id, idx, kind, line, start_offset, end_offset,
			tactic_id, tactic, captured, code, message, fatal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, documentID, idx, string(ch.Kind), ch.Line, ch.Start, ch.End,
		ch.TacticID, ch.Tactic, values, ch.Code, ch.Message, boolToInt(ch.Fatal))
	if err != nil {
		return fmt.Errorf("insert chunk %d of %s: %w", idx, documentID, err)
	}
	return nil
}

// WriteTactics records the sources of registered tactics so stored
// chunks can be traced back to the pattern that produced them.
// Already-known tactic IDs are left untouched.
func (s *Store) WriteTactics(ctx context.Context, tactics []*tactic.Tactic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tactics {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tactics (id, name, source)
			VALUES (?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, t.ID, t.Name, t.Source)
		if err != nil {
			return fmt.Errorf("insert tactic %s: %w", t.Label(), err)
		}
	}
	return tx.Commit()
}

func hasFatal(chunks []document.Chunk) bool {
	for _, ch := range chunks {
		if ch.Fatal {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
