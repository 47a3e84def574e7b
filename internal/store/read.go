package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/queryir"
)

// DocumentSummary is one row of the document history.
type DocumentSummary struct {
	ID           string `json:"id"`
	Seq          int64  `json:"seq"`
	DocumentHash string `json:"document_hash"`
	Fatal        bool   `json:"fatal"`
	Chunks       int    `json:"chunks"`
	Errors       int    `json:"errors"`
}

// StoredTactic is a tactic source recorded by WriteTactics.
type StoredTactic struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// ReadReport loads a stored report with its chunks in index order.
// Returns the source text alongside. ErrNotFound if id is unknown.
func (s *Store) ReadReport(ctx context.Context, id string) (*document.Report, string, error) {
	var (
		report document.Report
		stack  string
		source string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, document_hash, source, stack, script
		FROM documents
		WHERE id = ?
	`, id).Scan(&report.ID, &report.Seq, &report.DocumentHash, &source, &stack, &report.Script)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("report %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("query report %s: %w", id, err)
	}

	report.Stack, err = unmarshalStack(stack)
	if err != nil {
		return nil, "", fmt.Errorf("report %s: %w", id, err)
	}

	report.Chunks, err = s.readChunks(ctx, `
		SELECT kind, line, start_offset, end_offset, tactic_id, tactic, captured, code, message, fatal
		FROM chunks
		WHERE document_id = ?
		ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, "", fmt.Errorf("report %s: %w", id, err)
	}
	return &report, source, nil
}

// ListDocuments returns every stored document, oldest first.
// Results are ordered by seq ASC, id ASC with binary collation.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.seq, d.document_hash, d.fatal,
			COUNT(c.id),
			COALESCE(SUM(CASE WHEN c.kind = 'error' THEN 1 ELSE 0 END), 0)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var (
			d     DocumentSummary
			fatal int
		)
		if err := rows.Scan(&d.ID, &d.Seq, &d.DocumentHash, &fatal, &d.Chunks, &d.Errors); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.Fatal = fatal != 0
		out = append(out, d)
	}
	return out, rows.Err()
}

// FindByHash returns the IDs of reports whose source hashes to hash,
// oldest first.
func (s *Store) FindByHash(ctx context.Context, hash string) ([]string, error) {
	rows, err := s.Select(ctx, queryir.Select{
		From:    "documents",
		Columns: []string{"id"},
		Filter:  queryir.Equals{Field: "document_hash", Value: hash},
		OrderBy: []queryir.Order{{Field: "seq"}, {Field: "id"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query documents by hash: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan document id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MaxSeq returns the highest stored seq, or 0 for an empty store.
// A checker resuming against the store starts its clock here.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM documents`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	return seq.Int64, nil
}

// ChunksByTactic returns every stored chunk produced by the tactic with
// the given ID, in document order.
func (s *Store) ChunksByTactic(ctx context.Context, tacticID string) ([]document.Chunk, error) {
	return s.readChunks(ctx, `
		SELECT c.kind, c.line, c.start_offset, c.end_offset, c.tactic_id, c.tactic,
			c.captured, c.code, c.message, c.fatal
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.tactic_id = ?
		ORDER BY d.seq ASC, d.id COLLATE BINARY ASC, c.idx ASC
	`, tacticID)
}

// ReadTactics returns the recorded tactic sources ordered by ID.
func (s *Store) ReadTactics(ctx context.Context) ([]StoredTactic, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source FROM tactics
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query tactics: %w", err)
	}
	defer rows.Close()

	var out []StoredTactic
	for rows.Next() {
		var t StoredTactic
		if err := rows.Scan(&t.ID, &t.Name, &t.Source); err != nil {
			return nil, fmt.Errorf("scan tactic: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) readChunks(ctx context.Context, query string, args ...any) ([]document.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	chunks := []document.Chunk{}
	for rows.Next() {
		var (
			ch       document.Chunk
			kind     string
			captured string
			fatal    int
		)
		if err := rows.Scan(&kind, &ch.Line, &ch.Start, &ch.End, &ch.TacticID, &ch.Tactic,
			&captured, &ch.Code, &ch.Message, &fatal); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		ch.Kind = document.ChunkKind(kind)
		ch.Fatal = fatal != 0
		if ch.Values, err = unmarshalValues(captured); err != nil {
			return nil, err
		}
		chunks = append(chunks, ch)
	}
	return chunks, rows.Err()
}
