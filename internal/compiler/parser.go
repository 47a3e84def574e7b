package compiler

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"

	"github.com/roach88/cnl/internal/ir"
)

// Parser reads specification source text written in CUE. It implements
// tactic.SpecParser and is safe for concurrent use.
type Parser struct {
	mu  sync.Mutex
	ctx *cue.Context
}

// NewParser returns a parser with its own CUE context.
func NewParser() *Parser {
	return &Parser{ctx: cuecontext.New()}
}

// ParseSpecification compiles source, a CUE struct, into a Specification.
func (p *Parser) ParseSpecification(source string) (ir.Specification, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.ctx.CompileString(source, cue.Filename("specification"))
	return CompileSpecification(v)
}

// Source renders a specification value as canonical CUE text. Values
// that are equal render identically however they were written, field
// order included, so the result serves as the tactic's source identity.
func Source(v cue.Value) (string, error) {
	if err := v.Err(); err != nil {
		return "", formatCUEError(err)
	}
	var plain any
	if err := v.Decode(&plain); err != nil {
		return "", formatCUEError(err)
	}
	// re-encoding a Go map sorts the fields
	canonical := v.Context().Encode(plain)
	b, err := format.Node(canonical.Syntax(cue.Final(), cue.Concrete(true)), format.Simplify())
	if err != nil {
		return "", fmt.Errorf("format specification: %w", err)
	}
	return string(b), nil
}
