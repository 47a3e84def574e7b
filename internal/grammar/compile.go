package grammar

import (
	"fmt"

	"github.com/roach88/cnl/internal/ir"
)

// CompileError reports a specification the compiler cannot turn into rules.
type CompileError struct {
	Fragment FragmentID
	Path     string
	Message  string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("fragment %d: %s: %s", e.Fragment, e.Path, e.Message)
}

// Compile turns one specification into a fragment.
//
// Every content sequence (top level, repetition body, terminator) gets a
// nullable layout run between consecutive nodes, and a repetition body gets
// one more before its recursive self reference. The entry sequence also
// starts with one. Literals and reference
// captures never contain layout.
//
// id must be non-zero and unique per process; Compile panics on zero since
// fragment 0 holds composite roots.
func Compile(id FragmentID, spec ir.Specification) (*Fragment, error) {
	if id == 0 {
		panic("grammar: fragment id 0 is reserved for composite roots")
	}

	c := &compiler{
		frag: &Fragment{
			ID:          id,
			Key:         KeyOf(spec.Filter),
			Cardinality: make(map[string]Cardinality),
			Actions:     append([]ir.StateAction(nil), spec.Actions...),
			Structure:   spec.Structure,
		},
		stopRuns:    make(map[string]Symbol),
		occurrences: make(map[string]int),
	}
	f := c.frag

	f.Entry = c.alloc()
	c.layout = c.alloc()
	c.run = c.alloc()

	// left recursive, so a run costs one completion per character
	c.add(RuleLayout, c.layout, "", nonterminal(c.layout), char(' '))
	c.add(RuleLayout, c.layout, "")
	c.add(RuleRun, c.run, "", nonterminal(c.run), anyChar)
	c.add(RuleRun, c.run, "")

	rhs, err := c.sequence(spec.Content, "content")
	if err != nil {
		return nil, err
	}
	// leading layout: spaces between chained tactics belong to the next match
	c.add(RuleEntry, f.Entry, "", append([]sym{nonterminal(c.layout)}, rhs...)...)

	rules := make(map[*Rule]int, len(f.Rules))
	for i, r := range f.Rules {
		rules[r] = i
	}
	f.Nullable = computeNullable(rules)[f.Entry]

	for name, n := range c.occurrences {
		if n > 1 {
			f.Cardinality[name] = CardinalityList
		} else if _, ok := f.Cardinality[name]; !ok {
			f.Cardinality[name] = CardinalityUnique
		}
	}

	return f, nil
}

type compiler struct {
	frag        *Fragment
	next        uint32
	layout      Symbol
	run         Symbol
	stopRuns    map[string]Symbol
	repeatDepth int
	occurrences map[string]int
}

// alloc hands out the next local symbol of this fragment.
func (c *compiler) alloc() Symbol {
	s := Symbol{Fragment: c.frag.ID, Local: c.next}
	c.next++
	return s
}

func (c *compiler) add(kind RuleKind, lhs Symbol, name string, rhs ...sym) {
	c.frag.Rules = append(c.frag.Rules, &Rule{LHS: lhs, Kind: kind, Name: name, rhs: rhs})
}

func (c *compiler) sequence(nodes []ir.Node, path string) ([]sym, error) {
	var rhs []sym
	for i, n := range nodes {
		if i > 0 {
			rhs = append(rhs, nonterminal(c.layout))
		}
		var stop string
		if i+1 < len(nodes) && nodes[i+1].Kind == ir.NodeText {
			stop = nodes[i+1].Text
		}
		s, err := c.node(n, stop, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		rhs = append(rhs, nonterminal(s))
	}
	return rhs, nil
}

// node compiles one node. stop is the literal that directly follows it in
// its sequence, if any.
func (c *compiler) node(n ir.Node, stop, path string) (Symbol, error) {
	switch n.Kind {
	case ir.NodeText:
		return c.text(n, path)
	case ir.NodeReference:
		return c.reference(n, stop, path)
	case ir.NodeRepetition:
		return c.repetition(n, path)
	default:
		return Symbol{}, c.errorf(path, "unknown node kind %v", n.Kind)
	}
}

func (c *compiler) text(n ir.Node, path string) (Symbol, error) {
	if n.Text == "" {
		return Symbol{}, c.errorf(path, "text literal is empty")
	}
	s := c.alloc()
	runes := []rune(n.Text)
	rhs := make([]sym, len(runes))
	for i, r := range runes {
		rhs[i] = char(r)
	}
	c.add(RuleText, s, n.Text, rhs...)
	return s, nil
}

// reference compiles an open capture. Left open, the capture runs to the
// end of input but never contains stop, the literal that follows it.
// Closed by the close marker it may contain anything.
func (c *compiler) reference(n ir.Node, stop, path string) (Symbol, error) {
	if n.Name == "" {
		return Symbol{}, c.errorf(path, "reference name is empty")
	}
	c.occurrences[n.Name]++
	if c.repeatDepth > 0 {
		c.frag.Cardinality[n.Name] = CardinalityList
	}

	open := c.run
	if stop != "" {
		open = c.stopRun(stop)
	}

	s := c.alloc()
	c.add(RuleRef, s, n.Name, nonterminal(open))
	c.add(RuleRef, s, n.Name, nonterminal(c.run), closeMarker)
	return s, nil
}

// stopRun compiles a run of characters that does not contain lit, from
// the string-matching automaton of lit with its accepting state removed.
// states[q] derives the runs that leave the automaton in state q, i.e.
// that end in the first q runes of lit. The rules are left linear like
// the plain run. One run per distinct literal is shared within the
// fragment.
func (c *compiler) stopRun(lit string) Symbol {
	if s, ok := c.stopRuns[lit]; ok {
		return s
	}
	pat := []rune(lit)
	m := len(pat)

	// failure function: longest proper border of pat[:i+1]
	fail := make([]int, m)
	for i, k := 1, 0; i < m; i++ {
		for k > 0 && pat[i] != pat[k] {
			k = fail[k-1]
		}
		if pat[i] == pat[k] {
			k++
		}
		fail[i] = k
	}
	step := func(q int, r rune) int {
		for q > 0 && pat[q] != r {
			q = fail[q-1]
		}
		if pat[q] == r {
			q++
		}
		return q
	}

	var alphabet []rune
	seen := make(map[rune]bool)
	for _, r := range pat {
		if !seen[r] {
			seen[r] = true
			alphabet = append(alphabet, r)
		}
	}

	top := c.alloc()
	states := make([]Symbol, m)
	for q := range states {
		states[q] = c.alloc()
	}
	c.add(RuleRun, states[0], "")
	for q, s := range states {
		c.add(RuleRun, states[0], "", nonterminal(s), anyExcept(string(alphabet)))
		for _, r := range alphabet {
			if next := step(q, r); next < m {
				c.add(RuleRun, states[next], "", nonterminal(s), char(r))
			}
		}
		c.add(RuleRun, top, "", nonterminal(s))
	}

	c.stopRuns[lit] = top
	return top
}

// repetition compiles R -> body R | terminator. A missing terminator
// leaves R -> empty, i.e. zero or more repeats of body.
func (c *compiler) repetition(n ir.Node, path string) (Symbol, error) {
	if len(n.Body) == 0 {
		return Symbol{}, c.errorf(path, "repetition body is empty")
	}
	s := c.alloc()

	c.repeatDepth++
	body, err := c.sequence(n.Body, path+".body")
	c.repeatDepth--
	if err != nil {
		return Symbol{}, err
	}

	term, err := c.sequence(n.Terminator, path+".terminator")
	if err != nil {
		return Symbol{}, err
	}

	body = append(body, nonterminal(c.layout), nonterminal(s))
	c.add(RuleRepeat, s, "", body...)
	c.add(RuleRepeat, s, "", term...)
	return s, nil
}

func (c *compiler) errorf(path, format string, args ...any) error {
	return &CompileError{Fragment: c.frag.ID, Path: path, Message: fmt.Sprintf(format, args...)}
}
