package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupertlssmith/gowam/internal/ast"
)

func TestLoadProgramFactsAndRule(t *testing.T) {
	prog, err := loadProgram(`
		p(a).
		p(b).
		q(X) :- p(X).
	`)
	require.NoError(t, err)
	require.Len(t, prog.Clauses, 3)

	assert.Equal(t, "p", prog.Clauses[0].Head.Functor)
	assert.Equal(t, []ast.Term{ast.A("a")}, prog.Clauses[0].Head.Args)
	assert.Nil(t, prog.Clauses[0].Body)

	assert.Equal(t, "q", prog.Clauses[2].Head.Functor)
	require.Len(t, prog.Clauses[2].Body, 1)
	body, ok := prog.Clauses[2].Body[0].(*ast.Compound)
	require.True(t, ok)
	assert.Equal(t, "p", body.Functor)
}

func TestLoadProgramEmbeddedQuery(t *testing.T) {
	prog, err := loadProgram(`p(a). ?- p(X).`)
	require.NoError(t, err)
	require.Len(t, prog.Queries, 1)
	require.Len(t, prog.Queries[0].Goals, 1)
	g, ok := prog.Queries[0].Goals[0].(*ast.Compound)
	require.True(t, ok)
	assert.Equal(t, "p", g.Functor)
}

func TestLoadProgramSkipsLineComments(t *testing.T) {
	prog, err := loadProgram(`
		% a comment line
		p(a). % trailing comment
	`)
	require.NoError(t, err)
	require.Len(t, prog.Clauses, 1)
}

func TestParseListSyntax(t *testing.T) {
	goals, err := parseGoals(`p([1,2,3])`)
	require.NoError(t, err)
	require.Len(t, goals, 1)
	g := goals[0].(*ast.Compound)
	want := ast.List(ast.Nil(), ast.I(1), ast.I(2), ast.I(3))
	assert.Equal(t, want.String(), g.Args[0].String())
}

func TestParseListWithTailVariable(t *testing.T) {
	goals, err := parseGoals(`p([H|T])`)
	require.NoError(t, err)
	g := goals[0].(*ast.Compound)
	c, ok := g.Args[0].(*ast.Compound)
	require.True(t, ok)
	assert.Equal(t, ast.ConsFunctor, c.Functor)
	_, okHead := c.Args[0].(*ast.Var)
	_, okTail := c.Args[1].(*ast.Var)
	assert.True(t, okHead)
	assert.True(t, okTail)
}

func TestParseConjunctionAndCut(t *testing.T) {
	goals, err := parseGoals(`p(X), X > 1, !`)
	require.NoError(t, err)
	require.Len(t, goals, 3)
	_, ok := goals[1].(*ast.Compound)
	require.True(t, ok)
	a, ok := goals[2].(*ast.Atom)
	require.True(t, ok)
	assert.Equal(t, ast.CutFunctor, a.Name)
}

func TestParseSharesVariableIdentityWithinClause(t *testing.T) {
	prog, err := loadProgram(`same(X, X).`)
	require.NoError(t, err)
	args := prog.Clauses[0].Head.Args
	v1, ok1 := args[0].(*ast.Var)
	v2, ok2 := args[1].(*ast.Var)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Same(t, v1, v2, "repeated occurrences of X in one clause must share the same *ast.Var")
}

func TestLoadProgramRejectsGarbage(t *testing.T) {
	_, err := loadProgram(`p(a b).`)
	assert.Error(t, err)
}
