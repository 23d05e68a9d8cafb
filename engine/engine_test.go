package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/monitor"
)

func fact(name string, args ...ast.Term) *ast.Clause {
	return &ast.Clause{Head: &ast.Compound{Functor: name, Args: args}}
}

func rule(head *ast.Compound, body ...ast.Term) *ast.Clause {
	return &ast.Clause{Head: head, Body: body}
}

// TestEnumerateFacts is spec.md's p(a)/p(b)/p(c) scenario: a query over a
// multi-clause fact predicate must enumerate every clause in source order
// via repeated Next/Redo, then report exhaustion with no error.
func TestEnumerateFacts(t *testing.T) {
	e := New()
	require.NoError(t, e.Compile(fact("p", ast.A("a"))))
	require.NoError(t, e.Compile(fact("p", ast.A("b"))))
	require.NoError(t, e.Compile(fact("p", ast.A("c"))))

	x := ast.V("X")
	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "p", Args: []ast.Term{x}},
	}}))

	it := e.Solutions()
	var got []string
	for it.Next() {
		b, err := it.Bindings()
		require.NoError(t, err)
		got = append(got, b["X"].String())
	}
	require.NoError(t, it.Err())
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

// TestAppendForward is spec.md's append/3 scenario in its forward
// (both lists ground) mode: append([1,2],[3,4],X) must deterministically
// bind X to the concatenation via clause recursion and last-call
// optimization.
func TestAppendForward(t *testing.T) {
	e := New()

	// append([], L, L).
	l0 := ast.V("L")
	require.NoError(t, e.Compile(fact("append", ast.Nil(), l0, l0)))

	// append([H|T], L, [H|R]) :- append(T, L, R).
	h, tl, l1, r := ast.V("H"), ast.V("T"), ast.V("L"), ast.V("R")
	head := &ast.Compound{Functor: "append", Args: []ast.Term{
		ast.List(tl, h), l1, ast.List(r, h),
	}}
	body := &ast.Compound{Functor: "append", Args: []ast.Term{tl, l1, r}}
	require.NoError(t, e.Compile(rule(head, body)))

	x := ast.V("X")
	query := &ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "append", Args: []ast.Term{
			ast.List(ast.Nil(), ast.I(1), ast.I(2)),
			ast.List(ast.Nil(), ast.I(3), ast.I(4)),
			x,
		}},
	}}
	require.NoError(t, e.SetQuery(query))

	it := e.Solutions()
	require.True(t, it.Next())
	b, err := it.Bindings()
	require.NoError(t, err)

	want := ast.List(ast.Nil(), ast.I(1), ast.I(2), ast.I(3), ast.I(4))
	assert.Equal(t, want.String(), b["X"].String())

	assert.False(t, it.Next(), "append/3's recursion bottoms out in exactly one solution here")
	assert.NoError(t, it.Err())
}

// TestCutCommitsFirstClause is spec.md's max/3 scenario: when the first
// clause's guard succeeds, the cut must discard the choice point left by
// the remaining clause, so only one solution is ever produced.
func TestCutCommitsFirstClause(t *testing.T) {
	e := New()

	// max(X, Y, X) :- X >= Y, !.
	x1, y1 := ast.V("X"), ast.V("Y")
	head1 := &ast.Compound{Functor: "max", Args: []ast.Term{x1, y1, x1}}
	require.NoError(t, e.Compile(rule(head1,
		&ast.Compound{Functor: ">=", Args: []ast.Term{x1, y1}},
		ast.A(ast.CutFunctor),
	)))

	// max(X, Y, Y).
	x2, y2 := ast.V("X"), ast.V("Y")
	require.NoError(t, e.Compile(fact("max", x2, y2, y2)))

	m := ast.V("M")
	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "max", Args: []ast.Term{ast.I(5), ast.I(3), m}},
	}}))

	it := e.Solutions()
	require.True(t, it.Next())
	b, err := it.Bindings()
	require.NoError(t, err)
	assert.Equal(t, "5", b["M"].String())

	assert.False(t, it.Next(), "the cut must have discarded the second clause's choice point")
	assert.NoError(t, it.Err())
}

// TestMaxFallsThroughWithoutCommitting confirms the second max/3 clause is
// reached, and matches, when the first clause's guard fails.
func TestMaxFallsThroughWithoutCommitting(t *testing.T) {
	e := New()

	x1, y1 := ast.V("X"), ast.V("Y")
	head1 := &ast.Compound{Functor: "max", Args: []ast.Term{x1, y1, x1}}
	require.NoError(t, e.Compile(rule(head1,
		&ast.Compound{Functor: ">=", Args: []ast.Term{x1, y1}},
		ast.A(ast.CutFunctor),
	)))

	x2, y2 := ast.V("X"), ast.V("Y")
	require.NoError(t, e.Compile(fact("max", x2, y2, y2)))

	m := ast.V("M")
	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "max", Args: []ast.Term{ast.I(3), ast.I(5), m}},
	}}))

	it := e.Solutions()
	require.True(t, it.Next())
	b, err := it.Bindings()
	require.NoError(t, err)
	assert.Equal(t, "5", b["M"].String())
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

// TestUnificationFailureYieldsNoSolutions confirms a query whose goal can
// never unify against any clause reports a clean "no" rather than an error.
func TestUnificationFailureYieldsNoSolutions(t *testing.T) {
	e := New()
	require.NoError(t, e.Compile(fact("p", ast.A("a"))))

	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "p", Args: []ast.Term{ast.A("b")}},
	}}))

	it := e.Solutions()
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

// TestUnknownPredicateSurfacesLinkageErrorAndDisablesEngine confirms a
// query calling an undefined predicate surfaces the machine's linkage
// error through Iterator.Err, and that the engine refuses further use
// until Reset, per spec.md §7.
func TestUnknownPredicateSurfacesLinkageErrorAndDisablesEngine(t *testing.T) {
	e := New()
	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "nosuchpredicate", Args: []ast.Term{ast.A("x")}},
	}}))

	it := e.Solutions()
	assert.False(t, it.Next())
	require.Error(t, it.Err())

	err := e.Compile(fact("p", ast.A("a")))
	assert.ErrorIs(t, err, ErrNotUsable)

	e.Reset()
	assert.NoError(t, e.Compile(fact("p", ast.A("a"))))
}

// TestWithMonitorObservesEngineDrivenExecution confirms a monitor attached
// via WithMonitor actually sees the machine Engine drives underneath it,
// not just a machine built and stepped directly in a unit test.
func TestWithMonitorObservesEngineDrivenExecution(t *testing.T) {
	rec := monitor.NewRecorder(8)
	e := New(WithMonitor(rec))

	require.NoError(t, e.Compile(fact("p", ast.A("a"))))

	resetsAfterCompile, _, _ := rec.Counts()
	assert.GreaterOrEqual(t, resetsAfterCompile, 1, "New's initial Reset must already have reached the monitor")

	x := ast.V("X")
	require.NoError(t, e.SetQuery(&ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "p", Args: []ast.Term{x}},
	}}))

	it := e.Solutions()
	require.True(t, it.Next())

	_, _, steps := rec.Counts()
	assert.Greater(t, steps, 0, "solving a query must drive at least one observed step")
	last, ok := rec.Last()
	require.True(t, ok)
	assert.NotEmpty(t, last.Op)
}
