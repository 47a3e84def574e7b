package testutil

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
)

// SpecTable is a tactic.SpecParser that looks sources up in a map, so
// core tests can register tactics without the CUE front end.
type SpecTable map[string]ir.Specification

// ParseSpecification returns the table entry for source.
func (t SpecTable) ParseSpecification(source string) (ir.Specification, error) {
	spec, ok := t[source]
	if !ok {
		return ir.Specification{}, fmt.Errorf("no specification for source %q", source)
	}
	return spec, nil
}

// TacticDef describes one tactic for NewRegistry. Name doubles as the
// source text.
type TacticDef struct {
	Name      string
	Spec      ir.Specification
	Transform tactic.TransformerFunc
}

// NewRegistry registers defs in order into a fresh registry.
func NewRegistry(t *testing.T, defs ...TacticDef) *tactic.Registry {
	t.Helper()
	table := make(SpecTable, len(defs))
	for _, d := range defs {
		table[d.Name] = d.Spec
	}
	reg := tactic.NewRegistry(table)
	for _, d := range defs {
		var tr tactic.Transformer
		if d.Transform != nil {
			tr = d.Transform
		}
		_, err := reg.Register(d.Name, d.Name, tr)
		require.NoError(t, err, "register %s", d.Name)
	}
	return reg
}
