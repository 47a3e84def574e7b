package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
)

func TestRenderer_PlainForBuffers(t *testing.T) {
	buf := &bytes.Buffer{}
	r := newRenderer(buf)
	assert.False(t, r.color)

	r.OK("%d tactic(s) valid", 3)
	r.Fail("broken")
	r.Detail("rest %q", " tail")
	assert.Equal(t, "ok 3 tactic(s) valid\nFAIL broken\n  rest \" tail\"\n", buf.String())
}

func TestRenderer_Prediction(t *testing.T) {
	buf := &bytes.Buffer{}
	newRenderer(buf).Prediction(engine.Prediction{Outcome: engine.OutcomeComplete, Truncated: true})
	assert.Equal(t, "complete (truncated)\n", buf.String())
}

func TestRenderer_Report(t *testing.T) {
	doc := document.ParseOutline("Proof.\n  Zzz.\n")
	report := &document.Report{Chunks: []document.Chunk{
		{Kind: document.ChunkTactic, Line: 1, Start: 0, End: 6, Tactic: "Proof", Code: "Proof."},
		{Kind: document.ChunkError, Line: 2, Start: 0, End: 4, Message: document.MsgUnrecognized},
		{Kind: document.ChunkError, Line: 9, Start: 0, End: 0, Message: "gone", Fatal: true},
	}}

	buf := &bytes.Buffer{}
	newRenderer(buf).Report(report, doc)

	out := buf.String()
	assert.Contains(t, out, `  1:0-6 Proof "Proof."`)
	assert.Contains(t, out, "=> Proof.")
	assert.Contains(t, out, `  2:0-4 error unrecognized text "Zzz."`)
	assert.Contains(t, out, `  9:0-0 fatal gone ""`)
}

func TestLineIndex(t *testing.T) {
	doc := document.ParseOutline("a\n  b\n\n  c\nd\n")
	lines := lineIndex(doc.Paragraphs, nil)
	require.NotEmpty(t, lines)
	assert.Equal(t, "a", lines[1])
	assert.Equal(t, "b", lines[2])
	assert.Equal(t, "d", lines[5])
}

func TestFormatStack(t *testing.T) {
	assert.Equal(t, "[]", formatStack(nil))
	assert.Equal(t, "[theorem proof]", formatStack(ir.Stack{"theorem", "proof"}))
	assert.Equal(t, []string{`"a"`, `"b c"`}, quoteAll([]string{"a", "b c"}))
}
