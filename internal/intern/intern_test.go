package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFunctorInterning(t *testing.T) {
	tbl := New()

	id1 := tbl.Functor("foo", 2)
	id2 := tbl.Functor("foo", 2)
	assert.Equal(t, id1, id2, "repeated interning of the same (name,arity) returns the same id")

	id3 := tbl.Functor("foo", 3)
	assert.NotEqual(t, id1, id3, "different arity must intern to a different id")

	assert.Equal(t, FunctorKey{Name: "foo", Arity: 2}, tbl.Deintern(id1))
	assert.Equal(t, FunctorKey{Name: "foo", Arity: 3}, tbl.Deintern(id3))
	assert.Equal(t, "foo/3", tbl.Deintern(id3).String())

	assert.Equal(t, 2, tbl.NumFunctors())
}

func TestLookupFunctorWithoutInterning(t *testing.T) {
	tbl := New()
	_, ok := tbl.LookupFunctor("bar", 1)
	assert.False(t, ok)

	want := tbl.Functor("bar", 1)
	got, ok := tbl.LookupFunctor("bar", 1)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestVarInterning(t *testing.T) {
	tbl := New()
	x := tbl.Var("X")
	y := tbl.Var("Y")
	x2 := tbl.Var("X")

	assert.Equal(t, x, x2)
	assert.NotEqual(t, x, y)
	assert.Equal(t, "X", tbl.VarName(x))
	assert.Equal(t, "Y", tbl.VarName(y))
}
