package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/builtin"
	"github.com/rupertlssmith/gowam/internal/instr"
	"github.com/rupertlssmith/gowam/internal/intern"
	"github.com/rupertlssmith/gowam/internal/symtab"
)

func newCompiler() *Compiler {
	return New(intern.New(), builtin.NewStandard())
}

// opsOf decodes code into its opcode sequence, for assertions that don't
// care about operand details.
func opsOf(code []byte) []instr.Opcode {
	var ops []instr.Opcode
	for pc := 0; pc < len(code); {
		ins, next := instr.Decode(code, pc)
		ops = append(ops, ins.Op)
		pc = next
	}
	return ops
}

func TestCompileFactFunctorPattern(t *testing.T) {
	c := newCompiler()
	cl := &ast.Clause{Head: &ast.Compound{Functor: "p", Args: []ast.Term{ast.A("a")}}}

	code, patches, arity, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)
	assert.Equal(t, 1, arity)
	assert.Empty(t, patches, "a single clause needs no choice-point label to patch")

	ops := opsOf(code)
	assert.Equal(t, []instr.Opcode{instr.OpGetConstant, instr.OpProceed}, ops)
}

func TestCompilePredicateWrapsMultipleClausesInChoicePoints(t *testing.T) {
	c := newCompiler()
	clauses := []*ast.Clause{
		{Head: &ast.Compound{Functor: "p", Args: []ast.Term{ast.A("a")}}},
		{Head: &ast.Compound{Functor: "p", Args: []ast.Term{ast.A("b")}}},
		{Head: &ast.Compound{Functor: "p", Args: []ast.Term{ast.A("c")}}},
	}

	code, patches, arity, err := c.CompilePredicate(clauses)
	require.NoError(t, err)
	assert.Equal(t, 1, arity)
	assert.NotEmpty(t, patches, "try_me_else/retry_me_else labels must be patched by PatchBase")

	ops := opsOf(code)
	assert.Equal(t, []instr.Opcode{
		instr.OpTryMeElse,
		instr.OpGetConstant, instr.OpProceed,
		instr.OpRetryMeElse,
		instr.OpGetConstant, instr.OpProceed,
		instr.OpTrustMe,
		instr.OpGetConstant, instr.OpProceed,
	}, ops)
}

func TestCompileRuleBodyCallsNamedPredicate(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: []ast.Term{x}},
		Body: []ast.Term{&ast.Compound{Functor: "q", Args: []ast.Term{x}}},
	}

	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	ops := opsOf(code)
	// X occurs in head and body, so it is permanent: allocate, get_var Y0,
	// put_val Y0, deallocate, then execute q/1 (last-call optimization: the
	// single body goal is a tail call).
	assert.Contains(t, ops, instr.OpExecute)
	assert.NotContains(t, ops, instr.OpCall, "a single tail goal must use execute, not call")
}

func TestCompileConjunctionBodyUsesCallThenExecute(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: []ast.Term{x}},
		Body: []ast.Term{
			&ast.Compound{Functor: "q", Args: []ast.Term{x}},
			&ast.Compound{Functor: "r", Args: []ast.Term{x}},
		},
	}

	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	ops := opsOf(code)
	require.Contains(t, ops, instr.OpAllocate, "a non-tail call needs an environment frame")
	require.Contains(t, ops, instr.OpDeallocate)
	require.Contains(t, ops, instr.OpCall, "the first (non-last) goal must use call")
	require.Contains(t, ops, instr.OpExecute, "the last goal keeps last-call optimization")
}

func TestCompileQueryMakesEveryVariablePermanent(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	q := &ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "p", Args: []ast.Term{x}},
	}}

	_, _, vars, err := c.CompileQuery(q)
	require.NoError(t, err)

	op, ok := vars["X"]
	require.True(t, ok, "X must be reported back so callers can read its binding")
	assert.Equal(t, instr.ModeStack, op.Mode, "query variables are always permanent (Y slots)")
}

func TestCompileNeckCutNeedsNoBarrierSlot(t *testing.T) {
	c := newCompiler()
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: nil},
		Body: []ast.Term{ast.A(ast.CutFunctor)},
	}
	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	ops := opsOf(code)
	assert.Contains(t, ops, instr.OpNeckCut)
	assert.NotContains(t, ops, instr.OpGetLevel, "a bare cut as the first body goal needs no get_level snapshot")
}

func TestCompileDeepCutNeedsBarrierSlot(t *testing.T) {
	c := newCompiler()
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: nil},
		Body: []ast.Term{
			&ast.Compound{Functor: "q", Args: nil},
			ast.A(ast.CutFunctor),
		},
	}
	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	ops := opsOf(code)
	assert.Contains(t, ops, instr.OpGetLevel, "a cut after another goal needs a recorded barrier")
	assert.Contains(t, ops, instr.OpCut)
}

func TestCompileDisjunctionUsesLocalChoicePointAndJump(t *testing.T) {
	c := newCompiler()
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: nil},
		Body: []ast.Term{
			&ast.Compound{Functor: ast.SemiFunctor, Args: []ast.Term{
				ast.A("a"),
				ast.A("b"),
			}},
			&ast.Compound{Functor: "q", Args: nil},
		},
	}
	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	ops := opsOf(code)
	assert.Contains(t, ops, instr.OpTryMeElse)
	assert.Contains(t, ops, instr.OpTrustMe)
	assert.Contains(t, ops, instr.OpJump, "the first branch must jump past the second once it succeeds")
}

func TestCompilePredicateRejectsEmptyClauseList(t *testing.T) {
	c := newCompiler()
	_, _, _, err := c.CompilePredicate(nil)
	assert.Error(t, err)
}

// opCounts tallies how many times each opcode appears in code.
func opCounts(code []byte) map[instr.Opcode]int {
	counts := map[instr.Opcode]int{}
	for _, op := range opsOf(code) {
		counts[op]++
	}
	return counts
}

func TestCompileHeadCollapsesAnonymousRunIntoSingleUnifyVoid(t *testing.T) {
	c := newCompiler()
	// p(f(_, _, _)).
	cl := &ast.Clause{Head: &ast.Compound{Functor: "p", Args: []ast.Term{
		&ast.Compound{Functor: "f", Args: []ast.Term{ast.V("_"), ast.V("_"), ast.V("_")}},
	}}}

	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	counts := opCounts(code)
	assert.Equal(t, 1, counts[instr.OpUnifyVoid], "three consecutive anonymous args must collapse into one unify_void")
	assert.Equal(t, 0, counts[instr.OpUnifyVar])
}

func TestCompileBodyCollapsesAnonymousRunIntoSingleSetVoid(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	// p(X) :- q(f(_, _, _)).
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: []ast.Term{x}},
		Body: []ast.Term{&ast.Compound{Functor: "q", Args: []ast.Term{
			&ast.Compound{Functor: "f", Args: []ast.Term{ast.V("_"), ast.V("_"), ast.V("_")}},
		}}},
	}

	code, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	counts := opCounts(code)
	assert.Equal(t, 1, counts[instr.OpSetVoid], "three consecutive anonymous args must collapse into one set_void")
	assert.Equal(t, 0, counts[instr.OpSetVar])
}

func TestCompilePredicateRecordsSymbolTable(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	cl := &ast.Clause{
		Head: &ast.Compound{Functor: "p", Args: []ast.Term{x}},
		Body: []ast.Term{&ast.Compound{Functor: "q", Args: []ast.Term{x}}},
	}

	_, _, _, err := c.CompilePredicate([]*ast.Clause{cl})
	require.NoError(t, err)

	sym := c.Symbols()
	assert.True(t, sym.Permanent("X"), "X occurs in both the head and the body, so it must be permanent")
	assert.Equal(t, 2, sym.OccurrenceCount("X"))

	alloc, ok := sym.Allocation("X")
	require.True(t, ok)
	assert.Equal(t, symtab.ModeStack, alloc.Mode())
}

func TestCompileQueryRecordsSymbolTable(t *testing.T) {
	c := newCompiler()
	x := ast.V("X")
	q := &ast.Query{Goals: []ast.Term{
		&ast.Compound{Functor: "p", Args: []ast.Term{x}},
	}}

	_, _, _, err := c.CompileQuery(q)
	require.NoError(t, err)

	sym := c.Symbols()
	assert.True(t, sym.Permanent("X"), "every query variable is forced permanent")
	alloc, ok := sym.Allocation("X")
	require.True(t, ok)
	assert.Equal(t, symtab.ModeStack, alloc.Mode())
}
