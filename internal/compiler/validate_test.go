package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	spec := ir.Specification{
		Filter: "proof",
		Content: []ir.Node{
			ir.Text("Intros "),
			ir.Ref("x"),
			ir.Repeat([]ir.Node{ir.Text(", "), ir.Ref("x")}, []ir.Node{ir.Text(".")}),
		},
		Actions:   []ir.StateAction{ir.Push("case.left"), ir.Pop()},
		Structure: ir.StructureBeginParagraph,
	}

	assert.Empty(t, Validate(spec))
	assert.NoError(t, Check(spec))
}

func TestValidate_ActionOnly(t *testing.T) {
	// an empty tactic that only moves the state is allowed
	spec := ir.Specification{Actions: []ir.StateAction{ir.Pop()}}
	assert.Empty(t, Validate(spec))
}

func TestValidate_Wildcard(t *testing.T) {
	spec := ir.Specification{Filter: ir.FilterAny, Content: []ir.Node{ir.Text("(*")}}
	assert.Empty(t, Validate(spec))
}

func TestValidate_Codes(t *testing.T) {
	tests := []struct {
		name  string
		spec  ir.Specification
		code  string
		field string
	}{
		{"empty", ir.Specification{}, ErrEmptySpecification, "content"},
		{"empty literal", ir.Specification{Content: []ir.Node{ir.Text("")}}, ErrEmptyLiteral, "content[0].text"},
		{"empty ref", ir.Specification{Content: []ir.Node{ir.Ref(" ")}}, ErrEmptyReference, "content[0].ref"},
		{"empty repeat", ir.Specification{Content: []ir.Node{ir.Repeat(nil, nil)}}, ErrEmptyRepetition, "content[0].repeat"},
		{
			"nested literal",
			ir.Specification{Content: []ir.Node{ir.Repeat([]ir.Node{ir.Ref("a")}, []ir.Node{ir.Text("")})}},
			ErrEmptyLiteral, "content[0].until[0].text",
		},
		{
			"bad push",
			ir.Specification{Content: []ir.Node{ir.Text("a")}, Actions: []ir.StateAction{ir.Push("9lives")}},
			ErrInvalidAction, "actions[0].push",
		},
		{
			"unknown op",
			ir.Specification{Content: []ir.Node{ir.Text("a")}, Actions: []ir.StateAction{{Op: "swap"}}},
			ErrInvalidAction, "actions[0]",
		},
		{
			"bad structure",
			ir.Specification{Content: []ir.Node{ir.Text("a")}, Structure: "middle"},
			ErrInvalidStructure, "structure",
		},
		{
			"bad filter",
			ir.Specification{Filter: "has space", Content: []ir.Node{ir.Text("a")}},
			ErrInvalidFilter, "filter",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.spec)
			require.Len(t, errs, 1, "errors: %v", errs)
			assert.Equal(t, tt.code, errs[0].Code)
			assert.Equal(t, tt.field, errs[0].Field)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	spec := ir.Specification{
		Filter:    "?",
		Content:   []ir.Node{ir.Text(""), ir.Ref("")},
		Structure: "sideways",
	}

	assert.Equal(t,
		[]string{ErrInvalidFilter, ErrEmptyLiteral, ErrEmptyReference, ErrInvalidStructure},
		codes(Validate(spec)))
}

func TestCheck_Error(t *testing.T) {
	err := Check(ir.Specification{})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 1)
	assert.Equal(t, "[E101] content: content is empty and there are no actions", err.Error())
}
