package tactic_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cnl/internal/ir"
	"github.com/roach88/cnl/internal/tactic"
	"github.com/roach88/cnl/internal/testutil"
)

var letSpec = ir.Specification{Content: []ir.Node{ir.Text("Let "), ir.Ref("name"), ir.Text(".")}}

func newRegistry(specs testutil.SpecTable, opts ...tactic.RegistryOption) *tactic.Registry {
	return tactic.NewRegistry(specs, opts...)
}

func TestRegister_Basic(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"let": letSpec})

	tac, err := reg.Register("intros", "let", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, tac.Index)
	assert.Equal(t, "intros", tac.Name)
	assert.Equal(t, ir.TacticID("let"), tac.ID)
	require.NotNil(t, tac.Fragment)
	assert.Equal(t, 1, reg.Version())
}

func TestRegister_SameSourceSameNameReturnsExisting(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"let": letSpec})

	first, err := reg.Register("intros", "let", nil)
	require.NoError(t, err)
	second, err := reg.Register("intros", "let", nil)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, reg.Version())
}

func TestRegister_SameSourceDifferentNameConflicts(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"let": letSpec})

	_, err := reg.Register("intros", "let", nil)
	require.NoError(t, err)

	_, err = reg.Register("other", "let", nil)
	require.Error(t, err)
	assert.True(t, tactic.IsConflict(err))

	var ce *tactic.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "intros", ce.Existing)
	assert.Equal(t, "other", ce.Requested)
	assert.Equal(t, 1, reg.Version())
}

func TestRegister_ParseErrorPropagates(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{})

	_, err := reg.Register("x", "missing", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no specification")
	assert.False(t, tactic.IsConflict(err))
	assert.Equal(t, 0, reg.Version())
}

func TestRegister_CompileErrorPropagates(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"bad": {Content: []ir.Node{ir.Text("")}}})

	_, err := reg.Register("bad", "bad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text literal is empty")
}

func TestRegister_Validator(t *testing.T) {
	sentinel := errors.New("rejected")
	reg := newRegistry(
		testutil.SpecTable{"let": letSpec},
		tactic.WithValidator(func(ir.Specification) error { return sentinel }),
	)

	_, err := reg.Register("intros", "let", nil)
	assert.ErrorIs(t, err, sentinel)
}

func TestRegister_FragmentsAreDistinct(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"a": letSpec, "b": letSpec})

	a, err := reg.Register("a", "a", nil)
	require.NoError(t, err)
	b, err := reg.Register("b", "b", nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.Fragment.ID, b.Fragment.ID)
	assert.Equal(t, 1, b.Index)
}

func TestRegistry_AllIsSnapshot(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"a": letSpec, "b": letSpec})
	_, err := reg.Register("a", "a", nil)
	require.NoError(t, err)

	snap := reg.All()
	_, err = reg.Register("b", "b", nil)
	require.NoError(t, err)

	assert.Len(t, snap, 1)
	assert.Len(t, reg.All(), 2)
}

func TestRegistry_Lookup(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"a": letSpec, "b": letSpec})
	_, err := reg.Register("intros", "a", nil)
	require.NoError(t, err)
	_, err = reg.Register("", "b", nil)
	require.NoError(t, err)

	tac, ok := reg.Lookup("intros")
	require.True(t, ok)
	assert.Equal(t, "a", tac.Source)

	_, ok = reg.Lookup("")
	assert.False(t, ok, "unnamed tactics are not found by name")
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	table := testutil.SpecTable{}
	for i := 0; i < 20; i++ {
		table[fmt.Sprintf("src-%d", i)] = letSpec
	}
	reg := newRegistry(table)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := reg.Register(fmt.Sprintf("t%d", i), fmt.Sprintf("src-%d", i), nil)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all := reg.All()
	require.Len(t, all, 20)
	for i, tac := range all {
		assert.Equal(t, i, tac.Index)
	}
}

func TestTactic_Transform(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{"let": letSpec, "bare": letSpec})

	tac, err := reg.Register("intros", "let", tactic.TransformerFunc(func(v ir.Values) (string, error) {
		return "intros " + v["name"].Text + ".", nil
	}))
	require.NoError(t, err)

	code, err := tac.Transform(ir.Values{"name": ir.Scalar("x")})
	require.NoError(t, err)
	assert.Equal(t, "intros x.", code)

	bare, err := reg.Register("", "bare", nil)
	require.NoError(t, err)
	code, err = bare.Transform(nil)
	require.NoError(t, err)
	assert.Empty(t, code)
	assert.Len(t, bare.Label(), 12)
}

func TestTactic_Flags(t *testing.T) {
	reg := newRegistry(testutil.SpecTable{
		"begin": {Content: []ir.Node{ir.Text("Proof.")}, Structure: ir.StructureBeginParagraph},
		"close": {Actions: []ir.StateAction{ir.Pop()}},
	})

	begin, err := reg.Register("begin", "begin", nil)
	require.NoError(t, err)
	closer, err := reg.Register("close", "close", nil)
	require.NoError(t, err)

	assert.True(t, begin.EndsLine())
	assert.False(t, begin.Fallback())
	assert.False(t, closer.EndsLine())
	assert.True(t, closer.Fallback())
}
