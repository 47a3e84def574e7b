package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
)

// compileAll compiles specs into fragments with ids 1..n.
func compileAll(t *testing.T, specs ...ir.Specification) []*Fragment {
	t.Helper()
	frags := make([]*Fragment, len(specs))
	for i, spec := range specs {
		f, err := Compile(FragmentID(i+1), spec)
		require.NoError(t, err)
		frags[i] = f
	}
	return frags
}

// feed returns a parser over g that consumed all of text.
func feed(t *testing.T, g *Composite, text string) *Parser {
	t.Helper()
	p := NewParser(g)
	toks := Tokens(text)
	require.Equal(t, len(toks), p.FeedAll(toks), "input %q rejected", text)
	return p
}

func content(nodes ...ir.Node) ir.Specification {
	return ir.Specification{Content: nodes}
}
