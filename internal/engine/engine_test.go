package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
	"github.com/roach88/cnl/internal/testutil"
)

var (
	qed = testutil.TacticDef{Name: "qed", Spec: ir.Specification{
		Content: []ir.Node{ir.Text("Qed.")},
	}}
	intros = testutil.TacticDef{Name: "intros", Spec: ir.Specification{
		Content: []ir.Node{ir.Text("Let "), ir.Ref("name"), ir.Text(".")},
	}}
	proof = testutil.TacticDef{Name: "proof", Spec: ir.Specification{
		Content: []ir.Node{ir.Text("Proof.")},
		Actions: []ir.StateAction{ir.Push("proof")},
	}}
	end = testutil.TacticDef{Name: "end", Spec: ir.Specification{
		Filter:  "proof",
		Content: []ir.Node{ir.Text("End.")},
		Actions: []ir.StateAction{ir.Pop()},
	}}
)

func newEngine(t *testing.T, defs ...testutil.TacticDef) *Engine {
	t.Helper()
	return New(testutil.NewRegistry(t, defs...))
}

func TestEngine_CompositeMemoized(t *testing.T) {
	e := newEngine(t, qed, proof, end)

	a := e.composite(nil)
	b := e.composite(ir.Stack{})
	assert.Same(t, a, b)

	c := e.composite(ir.Stack{"proof"})
	assert.NotSame(t, a, c)
	assert.Equal(t, 1, c.g.Len())
	assert.Equal(t, "end", c.tactics[0].Name)
}

func TestEngine_CompositeRebuiltOnRegistration(t *testing.T) {
	reg := tactic.NewRegistry(testutil.SpecTable{"qed": qed.Spec, "intros": intros.Spec})
	_, err := reg.Register("qed", "qed", nil)
	require.NoError(t, err)
	e := New(reg)

	before := e.composite(nil)
	assert.Equal(t, 1, before.g.Len())

	_, err = reg.Register("intros", "intros", nil)
	require.NoError(t, err)

	after := e.composite(nil)
	assert.NotSame(t, before, after)
	assert.Equal(t, 2, after.g.Len())

	_, ok := e.ParseOne("Let x.", nil)
	assert.True(t, ok, "new tactic visible without rebuilding the engine")
}

func TestEngine_Options(t *testing.T) {
	e := New(testutil.NewRegistry(t), WithRounds(3), WithStepBudget(10))
	assert.Equal(t, 3, e.rounds)
	assert.Equal(t, 10, e.stepBudget)

	e = New(testutil.NewRegistry(t), WithRounds(0), WithStepBudget(-1))
	assert.Equal(t, DefaultRounds, e.rounds, "non-positive values keep the default")
	assert.Equal(t, DefaultStepBudget, e.stepBudget)
}

func TestEngine_RegistryAccessor(t *testing.T) {
	reg := testutil.NewRegistry(t, qed)
	e := New(reg)
	require.Same(t, reg, e.Registry())
}
