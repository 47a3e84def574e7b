package tactic

import (
	"github.com/roach88/cnl/internal/grammar"
	"github.com/roach88/cnl/internal/ir"
)

// Transformer turns the values captured by a tactic into a command for
// the target formal system.
type Transformer interface {
	Transform(values ir.Values) (string, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(values ir.Values) (string, error)

// Transform calls f(values).
func (f TransformerFunc) Transform(values ir.Values) (string, error) {
	return f(values)
}

// Tactic is a registered, compiled sentence pattern. Immutable.
type Tactic struct {
	// Index is the registration position within its registry.
	Index int

	// Name is optional; unnamed tactics are identified by ID.
	Name string

	// Source is the specification text the tactic was registered with.
	Source string

	// ID is the content-addressed identity of Source.
	ID string

	Spec     ir.Specification
	Fragment *grammar.Fragment

	transformer Transformer
}

// Transform renders the command for values. A tactic registered without a
// transformer produces no command.
func (t *Tactic) Transform(values ir.Values) (string, error) {
	if t.transformer == nil {
		return "", nil
	}
	return t.transformer.Transform(values)
}

// Label returns the name, or a short form of the ID for unnamed tactics.
func (t *Tactic) Label() string {
	if t.Name != "" {
		return t.Name
	}
	if len(t.ID) > 12 {
		return t.ID[:12]
	}
	return t.ID
}

// EndsLine reports whether a match of this tactic ends a line segment.
func (t *Tactic) EndsLine() bool {
	return t.Spec.Structure != ir.StructureNone
}

// Fallback reports whether the tactic can match empty input. Fallbacks
// close state at the end of a paragraph or document.
func (t *Tactic) Fallback() bool {
	return t.Fragment.Nullable
}
