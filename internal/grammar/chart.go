package grammar

import "slices"

// item is an Earley item: rule with a dot position and the column where
// the rule started.
type item struct {
	rule   *Rule
	dot    int
	origin int
}

func (it item) complete() bool { return it.dot == len(it.rule.rhs) }
func (it item) next() sym      { return it.rule.rhs[it.dot] }
func (it item) advance() item  { return item{rule: it.rule, dot: it.dot + 1, origin: it.origin} }

// column is the item set after consuming token number index.
// Columns are never modified once appended to a parser.
type column struct {
	index   int
	token   Token
	items   []item
	seen    map[item]struct{}
	waiting map[Symbol][]item
	done    map[Symbol][]item
}

func newColumn(index int, tok Token) *column {
	return &column{
		index:   index,
		token:   tok,
		seen:    make(map[item]struct{}),
		waiting: make(map[Symbol][]item),
		done:    make(map[Symbol][]item),
	}
}

func (c *column) add(it item) {
	if _, ok := c.seen[it]; ok {
		return
	}
	c.seen[it] = struct{}{}
	c.items = append(c.items, it)
	switch {
	case it.complete():
		c.done[it.rule.LHS] = append(c.done[it.rule.LHS], it)
	case !it.next().terminal():
		nt := it.next().nt
		c.waiting[nt] = append(c.waiting[nt], it)
	}
}

func (c *column) has(it item) bool {
	_, ok := c.seen[it]
	return ok
}

// Parser is an incremental Earley recognizer over one Composite.
type Parser struct {
	g       *Composite
	cols    []*column
	noClose bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithoutClose is for input that never carries the close marker. Rules
// that need the marker are never predicted, so the parse dies as soon as
// no capture can run on without being closed.
func WithoutClose() ParserOption {
	return func(p *Parser) {
		p.noClose = true
	}
}

// Snapshot is a saved parser position. Restoring is O(1).
type Snapshot struct {
	cols []*column
}

// NewParser returns a parser positioned before the first token.
func NewParser(g *Composite, opts ...ParserOption) *Parser {
	p := &Parser{g: g}
	for _, opt := range opts {
		opt(p)
	}
	col := newColumn(0, Token{})
	for _, r := range g.roots {
		col.add(item{rule: r})
	}
	p.build(col)
	p.cols = []*column{col}
	return p
}

// Grammar returns the composite the parser runs.
func (p *Parser) Grammar() *Composite {
	return p.g
}

// Pos returns the number of tokens consumed.
func (p *Parser) Pos() int {
	return len(p.cols) - 1
}

// Feed consumes one token. It returns false, leaving the parser unchanged,
// when no derivation survives the token.
func (p *Parser) Feed(tok Token) bool {
	return p.scan(tok, false)
}

// FeedLiteral consumes tok as the next character of a literal. Layout and
// capture runs do not move, so only literal progress survives the token.
func (p *Parser) FeedLiteral(tok Token) bool {
	return p.scan(tok, true)
}

func (p *Parser) scan(tok Token, literal bool) bool {
	last := p.cols[len(p.cols)-1]
	col := newColumn(len(p.cols), tok)
	for _, it := range last.items {
		if it.complete() || (literal && it.rule.Kind != RuleText) {
			continue
		}
		if s := it.next(); s.terminal() && s.matches(tok) {
			col.add(it.advance())
		}
	}
	if len(col.items) == 0 {
		return false
	}
	p.build(col)
	p.cols = append(p.cols, col)
	return true
}

// FeedAll consumes tokens until one fails. It returns the number consumed.
func (p *Parser) FeedAll(tokens []Token) int {
	for i, tok := range tokens {
		if !p.Feed(tok) {
			return i
		}
	}
	return len(tokens)
}

// Save returns a snapshot of the current position.
func (p *Parser) Save() Snapshot {
	n := len(p.cols)
	return Snapshot{cols: p.cols[:n:n]}
}

// Restore rewinds (or forwards) the parser to a snapshot taken from a
// parser over the same composite.
func (p *Parser) Restore(s Snapshot) {
	p.cols = s.cols
}

// build runs prediction and completion to a fixed point. Nullable
// nonterminals are stepped over at prediction time, so completions of
// empty derivations never miss items added later to the same column.
func (p *Parser) build(col *column) {
	for i := 0; i < len(col.items); i++ {
		it := col.items[i]
		if it.complete() {
			origin := col
			if it.origin != col.index {
				origin = p.cols[it.origin]
			}
			waiting := origin.waiting[it.rule.LHS]
			for _, w := range waiting {
				col.add(w.advance())
			}
			continue
		}
		s := it.next()
		if s.terminal() {
			continue
		}
		rules := p.g.byLHS[s.nt]
		if p.noClose {
			rules = p.g.unclosed[s.nt]
		}
		for _, r := range rules {
			col.add(item{rule: r, origin: col.index})
		}
		if p.g.nullable[s.nt] {
			col.add(it.advance())
		}
	}
}

// Accepted returns the root alternatives with a full derivation of all
// consumed input, in registration order.
func (p *Parser) Accepted() []int {
	last := p.cols[len(p.cols)-1]
	var alts []int
	for _, it := range last.done[RootSymbol] {
		if it.origin != 0 {
			continue
		}
		if alt := p.g.rootIndex(it.rule); alt >= 0 {
			alts = append(alts, alt)
		}
	}
	slices.Sort(alts)
	return slices.Compact(alts)
}

// Best returns the first accepted root alternative.
func (p *Parser) Best() (alt int, ok bool) {
	alts := p.Accepted()
	if len(alts) == 0 {
		return 0, false
	}
	return alts[0], true
}

// ExpectKind classifies an observable continuation.
type ExpectKind uint8

const (
	ExpectLiteral   ExpectKind = iota + 1 // a literal character comes next
	ExpectReference                       // a reference capture may start here
)

// Expectation is one observable continuation of the current position.
type Expectation struct {
	Kind ExpectKind
	Text string // the character for literals, the name for references
}

// Expectations lists the observable next steps at the current position:
// the next character of a literal being matched, or a reference about to
// be entered. Layout runs, capture bodies and the close marker are not
// observable and are left out.
func (p *Parser) Expectations() []Expectation {
	last := p.cols[len(p.cols)-1]
	var out []Expectation
	seen := make(map[Expectation]bool)
	for _, it := range last.items {
		if it.complete() {
			continue
		}
		var e Expectation
		switch {
		case it.rule.Kind == RuleRef && it.dot == 0:
			e = Expectation{Kind: ExpectReference, Text: it.rule.Name}
		case it.rule.Kind == RuleText && it.next().kind == symChar:
			e = Expectation{Kind: ExpectLiteral, Text: string(it.next().char)}
		default:
			continue
		}
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
