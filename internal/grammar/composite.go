package grammar

import "github.com/roach88/cnl/internal/ir"

// Composite is the union of every fragment active under one filter key,
// plus a root alternation over their entry symbols.
type Composite struct {
	Key FilterKey

	// Fragments are the included fragments in registration order; root
	// alternative i derives Fragments[i].Entry.
	Fragments []*Fragment

	// Included maps root alternative i to its index in the slice passed
	// to Assemble.
	Included []int

	roots    []*Rule
	byLHS    map[Symbol][]*Rule
	unclosed map[Symbol][]*Rule // byLHS without rules that need the close marker
	order    map[*Rule]int
	kind     map[Symbol]RuleKind
	nullable map[Symbol]bool
}

// Assemble unions the fragments whose key equals key, and every wildcard
// fragment, in the given order. The order decides ties between tactics
// matching the same input.
func Assemble(fragments []*Fragment, key FilterKey) *Composite {
	c := &Composite{
		Key:      key,
		byLHS:    make(map[Symbol][]*Rule),
		unclosed: make(map[Symbol][]*Rule),
		order:    make(map[*Rule]int),
		kind:     make(map[Symbol]RuleKind),
	}

	for i, f := range fragments {
		if f.Key != key && f.Key != KeyAny {
			continue
		}
		root := &Rule{LHS: RootSymbol, Kind: RuleRoot, rhs: []sym{nonterminal(f.Entry)}}
		c.roots = append(c.roots, root)
		c.Fragments = append(c.Fragments, f)
		c.Included = append(c.Included, i)
		c.addRule(root)
	}
	for _, f := range c.Fragments {
		for _, r := range f.Rules {
			c.addRule(r)
		}
	}

	c.nullable = computeNullable(c.order)
	return c
}

func (c *Composite) addRule(r *Rule) {
	c.byLHS[r.LHS] = append(c.byLHS[r.LHS], r)
	if !r.closes() {
		c.unclosed[r.LHS] = append(c.unclosed[r.LHS], r)
	}
	c.order[r] = len(c.order)
	c.kind[r.LHS] = r.Kind
}

// Len returns the number of root alternatives.
func (c *Composite) Len() int {
	return len(c.roots)
}

// Reduce applies the actions of root alternative alt to stack and returns
// the outgoing stack. The incoming stack is not modified.
func (c *Composite) Reduce(alt int, stack ir.Stack) ir.Stack {
	return stack.Apply(c.Fragments[alt].Actions)
}

// rootIndex returns the alternative number of a root rule, or -1.
func (c *Composite) rootIndex(r *Rule) int {
	for i, root := range c.roots {
		if root == r {
			return i
		}
	}
	return -1
}

// computeNullable finds every nonterminal deriving the empty string.
func computeNullable(rules map[*Rule]int) map[Symbol]bool {
	nullable := make(map[Symbol]bool)
	for changed := true; changed; {
		changed = false
		for r := range rules {
			if nullable[r.LHS] {
				continue
			}
			all := true
			for _, s := range r.rhs {
				if s.terminal() || !nullable[s.nt] {
					all = false
					break
				}
			}
			if all {
				nullable[r.LHS] = true
				changed = true
			}
		}
	}
	return nullable
}
