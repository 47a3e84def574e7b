package grammar

import (
	"slices"
	"strings"
)

// Capture is one reference value recovered from a derivation.
// Start and End are token positions; Text excludes the close marker.
type Capture struct {
	Name  string
	Text  string
	Start int
	End   int
}

// Derive recovers the captures of root alternative alt over all consumed
// input, in input order. It returns ok=false if alt has no full derivation.
//
// When the chart holds several derivations the walk picks one
// deterministically: rules in registration order, reference captures
// starting as late as possible, and every other constituent (layout,
// repetitions) as long as possible. Of two captures competing for the same
// text the earlier one takes the longer share, as with greedy regular
// expression groups. Repetitions take as many rounds as the input allows.
// Spaces at either edge of a capture belong to layout and are trimmed.
func (p *Parser) Derive(alt int) ([]Capture, bool) {
	if alt < 0 || alt >= len(p.g.roots) {
		return nil, false
	}
	end := p.Pos()
	root := item{rule: p.g.roots[alt], dot: 1}
	if !p.cols[end].has(root) {
		return nil, false
	}
	d := &deriver{p: p, active: make(map[span]bool)}
	out, ok := d.sequence(root.rule, 1, 0, end, nil)
	if !ok {
		return nil, false
	}
	return out, true
}

type span struct {
	nt         Symbol
	start, end int
}

type deriver struct {
	p      *Parser
	active map[span]bool
}

// sequence derives rule.rhs[:dot] over tokens (origin, end], walking the
// symbols right to left.
func (d *deriver) sequence(r *Rule, dot, origin, end int, out []Capture) ([]Capture, bool) {
	if dot == 0 {
		return out, origin == end
	}
	s := r.rhs[dot-1]
	prev := item{rule: r, dot: dot - 1, origin: origin}

	if s.terminal() {
		if end <= origin || !s.matches(d.p.cols[end].token) || !d.p.cols[end-1].has(prev) {
			return out, false
		}
		return d.sequence(r, dot-1, origin, end-1, out)
	}

	for _, k := range d.splits(s.nt, prev, origin, end) {
		head, ok := d.sequence(r, dot-1, origin, k, out)
		if !ok {
			continue
		}
		if full, ok := d.symbol(s.nt, k, end, head); ok {
			return full, true
		}
	}
	return out, false
}

// splits lists the start positions k at which nt can derive (k, end] with
// the rule prefix before it ending at k, in preference order.
func (d *deriver) splits(nt Symbol, prev item, origin, end int) []int {
	var ks []int
	for _, it := range d.p.cols[end].done[nt] {
		k := it.origin
		if k < origin || !d.p.cols[k].has(prev) {
			continue
		}
		ks = append(ks, k)
	}
	slices.Sort(ks)
	ks = slices.Compact(ks)
	if d.p.g.kind[nt] == RuleRef {
		// latest start first
		slices.Reverse(ks)
	}
	return ks
}

// symbol derives nt over (start, end] using the first rule, in
// registration order, that succeeds.
func (d *deriver) symbol(nt Symbol, start, end int, out []Capture) ([]Capture, bool) {
	key := span{nt: nt, start: start, end: end}
	if d.active[key] {
		return out, false
	}
	d.active[key] = true
	defer delete(d.active, key)

	var candidates []*Rule
	for _, it := range d.p.cols[end].done[nt] {
		if it.origin == start {
			candidates = append(candidates, it.rule)
		}
	}
	slices.SortFunc(candidates, func(a, b *Rule) int {
		return d.p.g.order[a] - d.p.g.order[b]
	})

	for _, r := range candidates {
		if r.Kind == RuleRef {
			return append(out, d.p.capture(r.Name, start, end)), true
		}
		if full, ok := d.sequence(r, len(r.rhs), start, end, out); ok {
			return full, true
		}
	}
	return out, false
}

// capture builds the capture of tokens (start, end] with edge spaces and
// close markers removed.
func (p *Parser) capture(name string, start, end int) Capture {
	blank := func(i int) bool {
		tok := p.cols[i].token
		return tok.Close || tok.Char == ' '
	}
	for start < end && blank(start+1) {
		start++
	}
	for end > start && blank(end) {
		end--
	}
	var b strings.Builder
	for i := start + 1; i <= end; i++ {
		if tok := p.cols[i].token; !tok.Close {
			b.WriteRune(tok.Char)
		}
	}
	return Capture{Name: name, Text: b.String(), Start: start, End: end}
}
