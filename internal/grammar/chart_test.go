package grammar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
)

func TestParser_AcceptsLiteral(t *testing.T) {
	g := Assemble(compileAll(t, content(ir.Text("Qed."))), KeyDefault)

	p := feed(t, g, "Qed.")
	alt, ok := p.Best()
	require.True(t, ok)
	assert.Equal(t, 0, alt)
	assert.Equal(t, 4, p.Pos())
}

func TestParser_FeedFailureLeavesParserUnchanged(t *testing.T) {
	g := Assemble(compileAll(t, content(ir.Text("Qed."))), KeyDefault)
	p := feed(t, g, "Qe")

	assert.False(t, p.Feed(Token{Char: 'x'}))
	assert.Equal(t, 2, p.Pos())
	assert.True(t, p.Feed(Token{Char: 'd'}))
}

func TestParser_LeadingLayout(t *testing.T) {
	g := Assemble(compileAll(t, content(ir.Text("Qed."))), KeyDefault)

	p := feed(t, g, "   Qed.")
	_, ok := p.Best()
	assert.True(t, ok)
}

func TestParser_SnapshotBranchesAreIndependent(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Qed.")),
		content(ir.Text("Qea.")),
	), KeyDefault)

	p := feed(t, g, "Qe")
	fork := p.Save()

	require.Equal(t, 2, p.FeedAll(Tokens("d.")))
	done := p.Save()
	alt, ok := p.Best()
	require.True(t, ok)
	assert.Equal(t, 0, alt)

	p.Restore(fork)
	require.Equal(t, 2, p.FeedAll(Tokens("a.")))
	alt, ok = p.Best()
	require.True(t, ok)
	assert.Equal(t, 1, alt)

	// the first branch is untouched by the second
	p.Restore(done)
	alt, ok = p.Best()
	require.True(t, ok)
	assert.Equal(t, 0, alt)
	assert.Equal(t, 4, p.Pos())
}

func TestParser_TiesInRegistrationOrder(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Done "), ir.Ref("x")),
		content(ir.Text("Done "), ir.Ref("y")),
	), KeyDefault)

	p := feed(t, g, "Done it")
	assert.Equal(t, []int{0, 1}, p.Accepted())
	alt, _ := p.Best()
	assert.Equal(t, 0, alt)
}

func TestAssemble_FilterKeys(t *testing.T) {
	frags := compileAll(t,
		ir.Specification{Content: []ir.Node{ir.Text("a")}},
		ir.Specification{Filter: "proof", Content: []ir.Node{ir.Text("b")}},
		ir.Specification{Filter: ir.FilterAny, Content: []ir.Node{ir.Text("c")}},
	)

	def := Assemble(frags, KeyDefault)
	assert.Equal(t, []int{0, 2}, def.Included)

	proof := Assemble(frags, ActiveKey(ir.Stack{"proof"}))
	assert.Equal(t, []int{1, 2}, proof.Included)
	assert.Equal(t, 2, proof.Len())

	p := NewParser(proof)
	assert.False(t, p.Feed(Token{Char: 'a'}), "default tactics are inactive under a label")
}

func TestComposite_Reduce(t *testing.T) {
	frags := compileAll(t, ir.Specification{
		Content: []ir.Node{ir.Text("Proof.")},
		Actions: []ir.StateAction{ir.Push("proof")},
	})
	g := Assemble(frags, KeyDefault)

	in := ir.Stack{}
	out := g.Reduce(0, in)
	assert.Equal(t, ir.Stack{"proof"}, out)
	assert.Empty(t, in)
}

func TestParser_Expectations(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Let "), ir.Ref("name"), ir.Text(".")),
	), KeyDefault)

	p := NewParser(g)
	assert.Equal(t, []Expectation{{Kind: ExpectLiteral, Text: "L"}}, p.Expectations())

	p = feed(t, g, "Let ")
	exps := p.Expectations()
	assert.Contains(t, exps, Expectation{Kind: ExpectReference, Text: "name"})
	assert.Contains(t, exps, Expectation{Kind: ExpectLiteral, Text: "."})
	for _, e := range exps {
		assert.NotEqual(t, " ", e.Text, "layout is not observable")
	}
}

func TestParser_CloseMarker(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Let "), ir.Ref("name"), ir.Text(".")),
	), KeyDefault)

	p := feed(t, g, "Let x")
	require.True(t, p.Feed(CloseToken))
	assert.False(t, p.Feed(Token{Char: 'y'}), "capture closed")
	assert.True(t, p.Feed(Token{Char: '.'}))

	alt, ok := p.Best()
	require.True(t, ok)
	caps, ok := p.Derive(alt)
	require.True(t, ok)
	require.Len(t, caps, 1)
	assert.Equal(t, "x", caps[0].Text)
}

func TestParser_WithoutClose(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Let "), ir.Ref("name"), ir.Text(".")),
		content(ir.Text("Qed.")),
	), KeyDefault)
	toks := Tokens("Let abc. Qed. Qed. Qed.")

	// a capture that may still be closed accepts anything
	assert.Equal(t, len(toks), NewParser(g).FeedAll(toks))

	p := NewParser(g, WithoutClose())
	assert.Equal(t, len("Let abc."), p.FeedAll(toks))
	alt, ok := p.Best()
	require.True(t, ok)
	caps, ok := p.Derive(alt)
	require.True(t, ok)
	require.Len(t, caps, 1)
	assert.Equal(t, "abc", caps[0].Text)
	assert.False(t, p.Feed(CloseToken))
}

func TestParser_LongCaptureKeepsColumnsSmall(t *testing.T) {
	g := Assemble(compileAll(t,
		content(ir.Text("Say "), ir.Ref("what"), ir.Text(".")),
		content(ir.Text("Say"), ir.Ref("rest")),
	), KeyDefault)
	p := feed(t, g, "Say "+strings.Repeat("ab  ", 300)+".")

	// columns at the same point of the repeated text hold the same items
	early := p.cols[4+4*10]
	late := p.cols[4+4*290]
	assert.Equal(t, len(early.items), len(late.items))

	alt, ok := p.Best()
	require.True(t, ok)
	assert.Equal(t, 0, alt)
}

func TestParser_FeedLiteralLeavesLayout(t *testing.T) {
	g := Assemble(compileAll(t, content(ir.Text("a"), ir.Text(" b"))), KeyDefault)

	p := feed(t, g, "a")
	require.True(t, p.FeedLiteral(Token{Char: ' '}))
	assert.Equal(t, []Expectation{{Kind: ExpectLiteral, Text: "b"}}, p.Expectations())
	assert.False(t, p.FeedLiteral(Token{Char: ' '}))

	// a plain feed also lets the space count as layout
	p = feed(t, g, "a")
	require.True(t, p.Feed(Token{Char: ' '}))
	assert.ElementsMatch(t, []Expectation{
		{Kind: ExpectLiteral, Text: "b"},
		{Kind: ExpectLiteral, Text: " "},
	}, p.Expectations())
}
