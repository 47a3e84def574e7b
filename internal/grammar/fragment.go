package grammar

import (
	"fmt"
	"strings"

	"github.com/roach88/cnl/internal/ir"
)

// RuleKind classifies rules so the parser and the prediction search can
// tell observable structure from plumbing.
type RuleKind uint8

const (
	RuleRoot   RuleKind = iota // composite root alternative
	RuleEntry                  // tactic entry sequence
	RuleText                   // literal characters
	RuleRef                    // open reference capture
	RuleRun                    // body of a capture: any characters
	RuleLayout                 // optional run of spaces
	RuleRepeat                 // repetition body or terminator
)

func (k RuleKind) String() string {
	switch k {
	case RuleRoot:
		return "root"
	case RuleEntry:
		return "entry"
	case RuleText:
		return "text"
	case RuleRef:
		return "ref"
	case RuleRun:
		return "run"
	case RuleLayout:
		return "layout"
	case RuleRepeat:
		return "repeat"
	default:
		return fmt.Sprintf("RuleKind(%d)", int(k))
	}
}

// Rule is one production LHS -> rhs.
type Rule struct {
	LHS  Symbol
	Kind RuleKind

	// Name is the reference name for RuleRef and the literal for RuleText.
	Name string

	rhs []sym
}

// Len returns the number of right-hand-side symbols.
func (r *Rule) Len() int {
	return len(r.rhs)
}

// closes reports whether the rule consumes the close marker.
func (r *Rule) closes() bool {
	for _, s := range r.rhs {
		if s.kind == symClose {
			return true
		}
	}
	return false
}

// String renders the rule for diagnostics, e.g. `f1.2 -> 'Q' 'e'`.
func (r *Rule) String() string {
	parts := make([]string, len(r.rhs))
	for i, s := range r.rhs {
		parts[i] = s.String()
	}
	if len(parts) == 0 {
		return r.LHS.String() + " -> \u03b5"
	}
	return r.LHS.String() + " -> " + strings.Join(parts, " ")
}

// Cardinality tells whether a reference yields one value or a list.
type Cardinality uint8

const (
	CardinalityUnique Cardinality = iota
	CardinalityList
)

func (c Cardinality) String() string {
	if c == CardinalityList {
		return "list"
	}
	return "unique"
}

// Fragment is the compiled, self-contained grammar of one tactic.
type Fragment struct {
	ID    FragmentID
	Key   FilterKey
	Entry Symbol
	Rules []*Rule

	// Nullable is set when the tactic can match the empty string. Such
	// tactics act as fallbacks that close open state.
	Nullable bool

	// Cardinality records every reference name the tactic captures.
	Cardinality map[string]Cardinality

	// Actions and Structure are carried from the Specification for the
	// composite root reduction.
	Actions   []ir.StateAction
	Structure ir.Structure
}

// Reduce groups captures by reference name. A name is scalar when it is
// unique and captured exactly once, and a list otherwise. List names with
// no capture map to an empty list; absent unique names stay absent.
func (f *Fragment) Reduce(captures []Capture) ir.Values {
	grouped := make(map[string][]string)
	var order []string
	for _, c := range captures {
		if _, ok := grouped[c.Name]; !ok {
			order = append(order, c.Name)
		}
		grouped[c.Name] = append(grouped[c.Name], c.Text)
	}

	values := make(ir.Values, len(order))
	for _, name := range order {
		texts := grouped[name]
		if len(texts) == 1 && f.Cardinality[name] == CardinalityUnique {
			values[name] = ir.Scalar(texts[0])
			continue
		}
		values[name] = ir.List(texts...)
	}
	for name, card := range f.Cardinality {
		if _, ok := values[name]; !ok && card == CardinalityList {
			values[name] = ir.List()
		}
	}
	return values
}
