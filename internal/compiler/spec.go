package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/cnl/internal/ir"
)

const schemaFile = "specification.schema.cue"

// schemaSource closes the top level of a specification. Nested repeat
// bodies are checked by parseNode.
const schemaSource = `
#Specification: {
	filter?:    string
	content:    [...#Node]
	actions?:   [...#Action]
	structure?: "begin_of_paragraph" | "end_of_paragraph"
}
#Action: {push: string} | {pop: true}
#Node: {text: string} | {ref: string} | {repeat: [...], until?: [...]}
`

// CompileSpecification decodes a CUE value into a Specification.
//
// The value is the specification struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`tactic: Intros: spec: {content: [{text: "Qed."}]}`)
//	spec, err := CompileSpecification(v.LookupPath(cue.ParsePath("tactic.Intros.spec")))
func CompileSpecification(v cue.Value) (ir.Specification, error) {
	var spec ir.Specification
	if err := v.Err(); err != nil {
		return spec, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename(schemaFile)).LookupPath(cue.ParsePath("#Specification"))
	if err := schema.Err(); err != nil {
		return spec, fmt.Errorf("specification schema: %w", err)
	}
	if err := schema.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return spec, formatCUEError(err)
	}

	if f := v.LookupPath(cue.ParsePath("filter")); f.Exists() {
		s, err := f.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Filter = s
	}

	content := v.LookupPath(cue.ParsePath("content"))
	if !content.Exists() {
		return spec, &CompileError{Field: "content", Message: "content is required", Pos: v.Pos()}
	}
	nodes, err := parseNodes(content, "content")
	if err != nil {
		return spec, err
	}
	spec.Content = nodes

	if a := v.LookupPath(cue.ParsePath("actions")); a.Exists() {
		spec.Actions, err = parseActions(a)
		if err != nil {
			return spec, err
		}
	}

	if s := v.LookupPath(cue.ParsePath("structure")); s.Exists() {
		str, err := s.String()
		if err != nil {
			return spec, formatCUEError(err)
		}
		spec.Structure = ir.Structure(str)
	}

	return spec, nil
}

// parseNodes decodes a list of content items.
func parseNodes(v cue.Value, path string) ([]ir.Node, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: path, Message: "must be a list", Pos: v.Pos()}
	}
	var nodes []ir.Node
	for i := 0; iter.Next(); i++ {
		n, err := parseNode(iter.Value(), fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// parseNode decodes one content item: exactly one of text, ref or repeat
// (with an optional until next to repeat).
func parseNode(v cue.Value, path string) (ir.Node, error) {
	text := v.LookupPath(cue.ParsePath("text"))
	ref := v.LookupPath(cue.ParsePath("ref"))
	repeat := v.LookupPath(cue.ParsePath("repeat"))

	kinds := 0
	for _, f := range []cue.Value{text, ref, repeat} {
		if f.Exists() {
			kinds++
		}
	}
	if kinds != 1 {
		return ir.Node{}, &CompileError{
			Field:   path,
			Message: "content item must have exactly one of text, ref or repeat",
			Pos:     v.Pos(),
		}
	}

	switch {
	case text.Exists():
		s, err := text.String()
		if err != nil {
			return ir.Node{}, formatCUEError(err)
		}
		return ir.Text(ir.Normalize(s)), nil

	case ref.Exists():
		s, err := ref.String()
		if err != nil {
			return ir.Node{}, formatCUEError(err)
		}
		return ir.Ref(s), nil

	default:
		body, err := parseNodes(repeat, path+".repeat")
		if err != nil {
			return ir.Node{}, err
		}
		var term []ir.Node
		if until := v.LookupPath(cue.ParsePath("until")); until.Exists() {
			term, err = parseNodes(until, path+".until")
			if err != nil {
				return ir.Node{}, err
			}
		}
		return ir.Repeat(body, term), nil
	}
}

// parseActions decodes the state actions list.
func parseActions(v cue.Value) ([]ir.StateAction, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var actions []ir.StateAction
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		if push := item.LookupPath(cue.ParsePath("push")); push.Exists() {
			label, err := push.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			actions = append(actions, ir.Push(label))
			continue
		}
		if pop := item.LookupPath(cue.ParsePath("pop")); pop.Exists() {
			actions = append(actions, ir.Pop())
			continue
		}
		return nil, &CompileError{
			Field:   fmt.Sprintf("actions[%d]", i),
			Message: "action must be {push: label} or {pop: true}",
			Pos:     item.Pos(),
		}
	}
	return actions, nil
}

// CompileError represents a decoding error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) == 0 {
		return err
	}
	// prefer the user's side of a conflict over the schema's
	pos := positions[0]
	for _, p := range positions {
		if p.Filename() != schemaFile {
			pos = p
			break
		}
	}
	return &CompileError{
		Field:   "cue",
		Message: first.Error(),
		Pos:     pos,
	}
}
