package grammar

import (
	"fmt"
	"strings"

	"github.com/roach88/cnl/internal/ir"
)

// FragmentID identifies one compiled fragment. Zero is reserved for the
// composite root.
type FragmentID uint32

// Symbol names a nonterminal.
type Symbol struct {
	Fragment FragmentID
	Local    uint32
}

// String renders the symbol for diagnostics, e.g. "f3.7".
func (s Symbol) String() string {
	return fmt.Sprintf("f%d.%d", s.Fragment, s.Local)
}

// RootSymbol is the start symbol of every Composite.
var RootSymbol = Symbol{}

// FilterKey selects which fragments are active for a state label.
type FilterKey string

// Sentinel keys. Labels are prefixed so no label can collide with them.
const (
	KeyDefault FilterKey = "#default"
	KeyAny     FilterKey = "#any"
)

// KeyOf maps a Specification filter to its key.
func KeyOf(filter string) FilterKey {
	switch filter {
	case ir.FilterDefault:
		return KeyDefault
	case ir.FilterAny:
		return KeyAny
	default:
		return FilterKey("@" + filter)
	}
}

// ActiveKey returns the key selected by the top of stack, or KeyDefault
// for an empty stack.
func ActiveKey(stack ir.Stack) FilterKey {
	top, ok := stack.Top()
	if !ok {
		return KeyDefault
	}
	return KeyOf(top)
}

type symKind uint8

const (
	symNonterminal symKind = iota
	symChar                // one specific character
	symAny                 // any character, never the close marker
	symAnyExcept           // any character not in except, never the close marker
	symClose               // the capture-close marker
)

// sym is one right-hand-side element: a nonterminal or a terminal test.
type sym struct {
	kind   symKind
	nt     Symbol
	char   rune
	except string
}

func nonterminal(s Symbol) sym { return sym{kind: symNonterminal, nt: s} }
func char(c rune) sym          { return sym{kind: symChar, char: c} }
func anyExcept(set string) sym { return sym{kind: symAnyExcept, except: set} }

var (
	anyChar     = sym{kind: symAny}
	closeMarker = sym{kind: symClose}
)

func (s sym) terminal() bool {
	return s.kind != symNonterminal
}

func (s sym) matches(tok Token) bool {
	switch s.kind {
	case symChar:
		return !tok.Close && tok.Char == s.char
	case symAny:
		return !tok.Close
	case symAnyExcept:
		return !tok.Close && !strings.ContainsRune(s.except, tok.Char)
	case symClose:
		return tok.Close
	default:
		return false
	}
}

func (s sym) String() string {
	switch s.kind {
	case symChar:
		return fmt.Sprintf("%q", s.char)
	case symAny:
		return "ANY"
	case symAnyExcept:
		return fmt.Sprintf("ANY-%q", s.except)
	case symClose:
		return "CLOSE"
	default:
		return s.nt.String()
	}
}
