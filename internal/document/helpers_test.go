package document

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/testutil"
)

func code(format string, refs ...string) func(ir.Values) (string, error) {
	return func(v ir.Values) (string, error) {
		args := make([]any, len(refs))
		for i, r := range refs {
			args[i] = v[r].Text
		}
		return fmt.Sprintf(format, args...), nil
	}
}

var (
	lemma = testutil.TacticDef{Name: "lemma", Spec: ir.Specification{
		Content:   []ir.Node{ir.Text("Lemma "), ir.Ref("n"), ir.Text(".")},
		Actions:   []ir.StateAction{ir.Push("proof")},
		Structure: ir.StructureBeginParagraph,
	}, Transform: code("Lemma %s.", "n")}
	let = testutil.TacticDef{Name: "let", Spec: ir.Specification{
		Filter:  "proof",
		Content: []ir.Node{ir.Text("Let "), ir.Ref("x"), ir.Text(".")},
	}, Transform: code("intros %s.", "x")}
	qed = testutil.TacticDef{Name: "qed", Spec: ir.Specification{
		Filter:    "proof",
		Content:   []ir.Node{ir.Text("Qed.")},
		Actions:   []ir.StateAction{ir.Pop()},
		Structure: ir.StructureEndParagraph,
	}, Transform: code("Qed.")}
	admit = testutil.TacticDef{Name: "admit", Spec: ir.Specification{
		Filter:  "proof",
		Actions: []ir.StateAction{ir.Pop()},
	}, Transform: code("Admitted.")}
	note = testutil.TacticDef{Name: "note", Spec: ir.Specification{
		Filter:  ir.FilterAny,
		Content: []ir.Node{ir.Text("Note.")},
	}, Transform: code("idtac.")}
	comment = testutil.TacticDef{Name: "Comment", Spec: ir.Specification{
		Filter:  ir.FilterAny,
		Content: []ir.Node{ir.Text("(*"), ir.Ref("text"), ir.Text("*)")},
	}}
	boom = testutil.TacticDef{Name: "boom", Spec: ir.Specification{
		Content: []ir.Node{ir.Text("Boom.")},
		Actions: []ir.StateAction{ir.Push("x")},
	}, Transform: func(ir.Values) (string, error) { return "", errors.New("kaboom") }}

	proofDefs = []testutil.TacticDef{lemma, let, qed, admit, note, comment}
)

func newChecker(t *testing.T, defs ...testutil.TacticDef) *Checker {
	t.Helper()
	e := engine.New(testutil.NewRegistry(t, defs...))
	return NewChecker(e,
		WithIDGenerator(testutil.NewSequentialIDGenerator("doc")),
		WithClock(testutil.NewDeterministicClock()),
	)
}

// render prints a report one chunk per line for golden files.
func render(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s seq: %d\n", r.ID, r.Seq)
	fmt.Fprintf(&b, "stack: %v\n", []string(r.Stack))
	for _, c := range r.Chunks {
		fmt.Fprintf(&b, "L%d %d-%d %s", c.Line, c.Start, c.End, c.Kind)
		if c.Tactic != "" {
			fmt.Fprintf(&b, " %s", c.Tactic)
		}
		for _, k := range c.Values.SortedKeys() {
			fmt.Fprintf(&b, " %s=%q", k, c.Values[k].Any())
		}
		if c.Code != "" {
			fmt.Fprintf(&b, " code=%q", c.Code)
		}
		if c.Message != "" {
			fmt.Fprintf(&b, " msg=%q", c.Message)
		}
		if c.Fatal {
			b.WriteString(" fatal")
		}
		b.WriteByte('\n')
	}
	b.WriteString("script:\n")
	b.WriteString(r.Script)
	return b.String()
}
