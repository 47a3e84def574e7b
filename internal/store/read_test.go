package store

import (
	"context"
	"testing"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/queryir"
	"github.com/roach88/cnl/internal/tactic"
)

func TestListDocumentsOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Written out of order; two share a seq so the ID breaks the tie.
	for _, r := range []*document.Report{
		sampleReport("c", 2),
		sampleReport("b", 1),
		sampleReport("a", 2),
	} {
		if err := s.WriteReport(ctx, r, ""); err != nil {
			t.Fatalf("WriteReport %s: %v", r.ID, err)
		}
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	var ids []string
	for _, d := range docs {
		ids = append(ids, d.ID)
		if d.Chunks != 3 || d.Errors != 1 {
			t.Errorf("%s: chunks=%d errors=%d, want 3 and 1", d.ID, d.Chunks, d.Errors)
		}
	}
	if len(ids) != 3 || ids[0] != "b" || ids[1] != "a" || ids[2] != "c" {
		t.Errorf("order = %v, want [b a c]", ids)
	}
}

func TestListDocumentsEmpty(t *testing.T) {
	s := openTestStore(t)

	docs, err := s.ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d documents, want 0", len(docs))
	}
}

func TestFindByHash(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleReport("first", 1)
	second := sampleReport("second", 2)
	other := sampleReport("other", 3)
	other.DocumentHash = ir.DocumentHash("something else")
	for _, r := range []*document.Report{second, other, first} {
		if err := s.WriteReport(ctx, r, ""); err != nil {
			t.Fatalf("WriteReport: %v", err)
		}
	}

	ids, err := s.FindByHash(ctx, first.DocumentHash)
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if len(ids) != 2 || ids[0] != "first" || ids[1] != "second" {
		t.Errorf("ids = %v, want [first second]", ids)
	}

	ids, err = s.FindByHash(ctx, "nope")
	if err != nil {
		t.Fatalf("FindByHash: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}
}

func TestSelect(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, r := range []*document.Report{sampleReport("a", 1), sampleReport("b", 2)} {
		if err := s.WriteReport(ctx, r, ""); err != nil {
			t.Fatalf("WriteReport: %v", err)
		}
	}

	rows, err := s.Select(ctx, queryir.Select{
		From:    "chunks",
		Columns: []string{"document_id", "line"},
		Filter:  queryir.Where(map[string]any{"kind": "error"}),
		OrderBy: []queryir.Order{{Field: "document_id", Desc: true}},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	defer rows.Close()

	var got []string
	for rows.Next() {
		var (
			id   string
			line int
		)
		if err := rows.Scan(&id, &line); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if line != 3 {
			t.Errorf("%s: line = %d, want 3", id, line)
		}
		got = append(got, id)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("documents = %v, want [b a]", got)
	}
}

func TestSelectRejectsIdentifiers(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Select(context.Background(), queryir.Select{From: "documents; DROP TABLE documents"})
	if err == nil {
		t.Fatal("Select accepted an unsafe table name")
	}
}

func TestMaxSeq(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seq, err := s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq: %v", err)
	}
	if seq != 0 {
		t.Errorf("empty store MaxSeq = %d, want 0", seq)
	}

	for i, id := range []string{"a", "b", "c"} {
		if err := s.WriteReport(ctx, sampleReport(id, int64(i*5+1)), ""); err != nil {
			t.Fatalf("WriteReport: %v", err)
		}
	}
	seq, err = s.MaxSeq(ctx)
	if err != nil {
		t.Fatalf("MaxSeq: %v", err)
	}
	if seq != 11 {
		t.Errorf("MaxSeq = %d, want 11", seq)
	}

	// A clock resumed from the store never reissues a stored seq.
	clock := document.NewClockAt(seq)
	if next := clock.Next(); next <= seq {
		t.Errorf("resumed clock issued %d, want > %d", next, seq)
	}
}

func TestChunksByTactic(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, r := range []*document.Report{sampleReport("b", 2), sampleReport("a", 1)} {
		if err := s.WriteReport(ctx, r, ""); err != nil {
			t.Fatalf("WriteReport: %v", err)
		}
	}

	chunks, err := s.ChunksByTactic(ctx, "tactic-qed")
	if err != nil {
		t.Fatalf("ChunksByTactic: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, ch := range chunks {
		if ch.Tactic != "qed" || ch.Line != 2 {
			t.Errorf("unexpected chunk %+v", ch)
		}
		if xs := ch.Values["xs"]; !xs.Multi || len(xs.List) != 2 {
			t.Errorf("list value lost: %+v", xs)
		}
	}
}

func TestWriteReadTactics(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	tactics := []*tactic.Tactic{
		{Name: "qed", Source: "content: [{text: \"Qed.\"}]", ID: "id-b"},
		{Name: "", Source: "content: [{text: \"Admitted.\"}]", ID: "id-a"},
	}
	if err := s.WriteTactics(ctx, tactics); err != nil {
		t.Fatalf("WriteTactics: %v", err)
	}
	// Rewriting is a no-op.
	if err := s.WriteTactics(ctx, tactics); err != nil {
		t.Fatalf("WriteTactics again: %v", err)
	}

	got, err := s.ReadTactics(ctx)
	if err != nil {
		t.Fatalf("ReadTactics: %v", err)
	}
	if len(got) != 2 || got[0].ID != "id-a" || got[1].ID != "id-b" {
		t.Fatalf("tactics = %+v", got)
	}
	if got[1].Name != "qed" || got[1].Source != tactics[0].Source {
		t.Errorf("tactic row = %+v", got[1])
	}
}
