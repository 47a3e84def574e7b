package engine

import (
	"encoding/json"

	"github.com/roach88/cnl/internal/grammar"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
)

// Match is one tactic recognized at the start of the input.
type Match struct {
	Tactic *tactic.Tactic
	Values ir.Values

	// Start and End are byte offsets of the matched text.
	Start int
	End   int

	// Stack is the state after applying the tactic's actions.
	Stack ir.Stack
}

// MarshalJSON encodes the tactic by label and ID.
func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tactic   string    `json:"tactic"`
		TacticID string    `json:"tactic_id"`
		Values   ir.Values `json:"values"`
		Start    int       `json:"start"`
		End      int       `json:"end"`
		Stack    ir.Stack  `json:"stack"`
	}{m.Tactic.Label(), m.Tactic.ID, nonNilValues(m.Values), m.Start, m.End, nonNilStack(m.Stack)})
}

func nonNilValues(v ir.Values) ir.Values {
	if v == nil {
		return ir.Values{}
	}
	return v
}

func nonNilStack(s ir.Stack) ir.Stack {
	if s == nil {
		return ir.Stack{}
	}
	return s
}

// Empty reports whether the match consumed no input.
func (m Match) Empty() bool {
	return m.Start == m.End
}

// Chain is the result of matching tactics back to back along a line.
type Chain struct {
	Matches []Match `json:"matches"`

	// Stack is the state after the last match, or the incoming stack.
	Stack ir.Stack `json:"stack"`

	// End is the byte offset where matching stopped. Text past End is an
	// unparsed remainder.
	End int `json:"end"`
}

// Rest returns the unparsed remainder of text.
func (c Chain) Rest(text string) string {
	return text[c.End:]
}

type parseConfig struct {
	allowEmpty bool
}

// ParseOption configures ParseOne and ParseChain.
type ParseOption func(*parseConfig)

// WithEmptyMatch lets a tactic match zero characters. Used for fallback
// tactics that close open state.
func WithEmptyMatch() ParseOption {
	return func(c *parseConfig) {
		c.allowEmpty = true
	}
}

// ParseOne finds the longest prefix of text matched by a tactic active
// under stack. Ties at the longest length go to the earliest registered
// tactic. It returns ok=false when no non-empty prefix matches, or no
// prefix at all with WithEmptyMatch.
func (e *Engine) ParseOne(text string, stack ir.Stack, opts ...ParseOption) (*Match, bool) {
	var cfg parseConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	c := e.composite(stack)
	p, best, _ := longestPrefix(c.g, text, cfg.allowEmpty)
	if best < 0 {
		return nil, false
	}

	alt, _ := p.Best()
	caps, ok := p.Derive(alt)
	if !ok {
		return nil, false
	}

	return &Match{
		Tactic: c.tactics[alt],
		Values: c.g.Fragments[alt].Reduce(caps),
		Start:  0,
		End:    best,
		Stack:  c.g.Reduce(alt, stack),
	}, true
}

// ParseChain matches tactics back to back from the start of text, each
// under the stack left by the previous one. It stops when nothing
// matches, after a tactic that ends the line, or after an empty match.
func (e *Engine) ParseChain(text string, stack ir.Stack, opts ...ParseOption) Chain {
	chain := Chain{Stack: stack}
	for chain.End < len(text) || len(chain.Matches) == 0 {
		m, ok := e.ParseOne(text[chain.End:], chain.Stack, opts...)
		if !ok {
			break
		}
		m.Start += chain.End
		m.End += chain.End
		chain.Matches = append(chain.Matches, *m)
		chain.Stack = m.Stack
		chain.End = m.End

		if m.Empty() || m.Tactic.EndsLine() {
			break
		}
	}
	return chain
}

// longestPrefix feeds text until no derivation survives. It returns the
// parser rewound to the longest accepted prefix, the byte length of that
// prefix (-1 for none) and the number of bytes fed.
func longestPrefix(g *grammar.Composite, text string, allowEmpty bool) (p *grammar.Parser, best, fed int) {
	// ParseOne never closes a capture by hand
	p = grammar.NewParser(g, grammar.WithoutClose())
	lx := grammar.NewLexer(text)

	best = -1
	var snap grammar.Snapshot
	if _, ok := p.Best(); ok && allowEmpty {
		best, snap = 0, p.Save()
	}

	// keep feeding past a success: a longer prefix may still match
	for {
		fed = lx.Save()
		tok, ok := lx.Next()
		if !ok || !p.Feed(tok) {
			break
		}
		if _, ok := p.Best(); ok {
			best, snap = lx.Save(), p.Save()
		}
	}
	if best >= 0 {
		p.Restore(snap)
	}
	return p, best, fed
}
