// Package compiler lowers Horn clauses (internal/ast) to WAM bytecode
// (internal/instr), per spec.md §4.2: comma-flattening, permanent/temporary
// variable classification, breadth-first head matching and depth-first
// body argument construction, built-in dispatch, cut-barrier handling, last-call
// optimization, and multi-clause choice-point wrapping.
//
// Grounded on the teacher's asm package (asm/asm.go, asm/parser.go): a
// single-pass emitter building an in-memory instruction list, followed by a
// two-pass label-resolution and byte-encoding step.
package compiler

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rupertlssmith/gowam/internal/ast"
	"github.com/rupertlssmith/gowam/internal/builtin"
	"github.com/rupertlssmith/gowam/internal/instr"
	"github.com/rupertlssmith/gowam/internal/intern"
	"github.com/rupertlssmith/gowam/internal/symtab"
)

// Compiler lowers clauses and queries against a shared interner (so a
// functor id means the same thing to every predicate compiled from it) and
// a shared built-in registry.
type Compiler struct {
	interner *intern.Table
	builtins *builtin.Table
	sym      *symtab.Table
}

// New constructs a Compiler.
func New(interner *intern.Table, builtins *builtin.Table) *Compiler {
	return &Compiler{interner: interner, builtins: builtins, sym: symtab.New()}
}

// Symbols returns the symbol table Phase 4's register allocation records
// were last written to (spec.md §2 module 2, §4.2 Phase 4): one entry per
// clause- or query-local variable name, reset and repopulated by every
// CompilePredicate/CompileQuery call. Exposed so callers (and tests) can
// inspect the allocation a compile produced without re-deriving it.
func (c *Compiler) Symbols() *symtab.Table { return c.sym }

// recordSymbols writes every variable's final analysis into sym: its
// occurrence count and permanent/temporary classification from classify,
// and the mode<<8|slot allocation assignPermSlots/operandFor settled on.
// Called once a clause or query body is fully emitted, since a temporary
// variable's register is only assigned lazily on its first occurrence.
func recordSymbols(sym *symtab.Table, vars map[string]*varInfo) {
	sym.Reset()
	for name, vi := range vars {
		sym.Set(name, symtab.AttrOccurrenceCount, vi.occCount)
		sym.Set(name, symtab.AttrPermanent, vi.perm)
		mode := symtab.ModeReg
		if vi.op.Mode == instr.ModeStack {
			mode = symtab.ModeStack
		}
		sym.Set(name, symtab.AttrAllocation, symtab.Encode(mode, vi.op.Index))
	}
}

// clauseCtx holds the per-clause compilation state: variable bindings,
// register allocation cursors, and the shared linker every clause of a
// predicate appends its instructions to.
type clauseCtx struct {
	c      *Compiler
	lk     *linker
	vars   map[string]*varInfo
	nextX  int
	permN  int // total permanent-variable count, including the cut barrier slot if any
	barrier int // Y index of the cut-barrier slot, -1 if this clause needs none
	counter *int
}

func (cx *clauseCtx) emit(ins instr.Instruction) { cx.lk.emit(ins) }
func (cx *clauseCtx) mark(label string)          { cx.lk.mark(label) }

func (cx *clauseCtx) newLabel(prefix string) string {
	*cx.counter++
	return fmt.Sprintf("%s%d", prefix, *cx.counter)
}

func (cx *clauseCtx) functorRef(name string, arity int) instr.FunctorRef {
	id := cx.c.interner.Functor(name, arity)
	return instr.FunctorRef{ID: uint32(id), Name: name, Arity: arity}
}

func (cx *clauseCtx) intFunctorRef(v int64) instr.FunctorRef {
	return cx.functorRef(strconv.FormatInt(v, 10), 0)
}

// operandFor returns name's operand, lazily allocating a temporary register
// on its first use (permanent variables are all pre-allocated up front, see
// assignPermSlots). first reports whether this is the variable's first
// occurrence in this clause, selecting the _var vs _val instruction form.
func (cx *clauseCtx) operandFor(name string) (op instr.Operand, first bool) {
	vi := cx.vars[name]
	first = !vi.used
	vi.used = true
	if !vi.assigned {
		vi.op = instr.Operand{Mode: instr.ModeReg, Index: cx.nextX}
		cx.nextX++
		vi.assigned = true
	}
	return vi.op, first
}

// assignPermSlots pre-allocates a Y slot for every permanent variable, in
// first-occurrence order (then name, for determinism), so that allocate's
// slot count is known before any instruction referencing a later-occurring
// permanent variable has been emitted.
func assignPermSlots(vars map[string]*varInfo) int {
	type item struct {
		name string
		vi   *varInfo
	}
	var items []item
	for name, vi := range vars {
		if vi.perm {
			items = append(items, item{name, vi})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].vi.firstGoal != items[j].vi.firstGoal {
			return items[i].vi.firstGoal < items[j].vi.firstGoal
		}
		return items[i].name < items[j].name
	})
	for idx, it := range items {
		it.vi.op = instr.Operand{Mode: instr.ModeStack, Index: idx}
		it.vi.assigned = true
	}
	return len(items)
}

// CompilePredicate compiles every clause of one predicate (all sharing the
// same head functor/arity) into a single block, wrapping multiple clauses
// in a try_me_else/retry_me_else/trust_me choice-point chain (spec.md
// §4.2's clause-selection compilation). The returned code is addressed
// relative to the start of this block; patches lists the byte offsets of
// every label operand that must be rebased by PatchBase before the block
// is appended to a machine's code buffer. arity is the predicate's arity,
// for the caller's call-table entry.
func (c *Compiler) CompilePredicate(clauses []*ast.Clause) (code []byte, patches []int, arity int, err error) {
	if len(clauses) == 0 {
		return nil, nil, 0, fmt.Errorf("compiler: CompilePredicate called with no clauses")
	}
	arity = len(clauses[0].Head.Args)

	lk := newLinker()
	counter := 0
	n := len(clauses)

	labelFor := func(i int) string { return fmt.Sprintf("clause%d", i) }

	if n > 1 {
		lk.emit(instr.Instruction{Op: instr.OpTryMeElse, Label: labelFor(1), N: arity})
	}
	for i, cl := range clauses {
		if i > 0 {
			lk.mark(labelFor(i))
			if i == n-1 {
				lk.emit(instr.Instruction{Op: instr.OpTrustMe})
			} else {
				lk.emit(instr.Instruction{Op: instr.OpRetryMeElse, Label: labelFor(i + 1)})
			}
		}
		cx := &clauseCtx{c: c, lk: lk, counter: &counter}
		if err := cx.compileClause(cl); err != nil {
			return nil, nil, 0, err
		}
	}

	code, patches, err = lk.link()
	return code, patches, arity, err
}

// CompileQuery compiles a top-level goal list the same way a clause body is
// compiled (spec.md §4.2), with no head and no permanent/temporary
// distinction forced by recursion across calls back into this same query
// (every query variable is permanent, since the caller inspects bindings
// only after the whole goal list succeeds). vars maps every named query
// variable to the Y-slot operand its final binding lands in, so a caller
// (engine.Engine) can read bindings back out of the query's environment
// frame once the goal list has succeeded.
func (c *Compiler) CompileQuery(q *ast.Query) (code []byte, patches []int, vars map[string]instr.Operand, err error) {
	lk := newLinker()
	counter := 0
	cx := &clauseCtx{c: c, lk: lk, counter: &counter}

	qvars := map[string]*varInfo{}
	occ := map[string]map[int]bool{}
	disj := map[string]bool{}
	for i, g := range q.Goals {
		walkGoal(g, i, false, occ, disj)
	}
	for name, positions := range occ {
		first := -1
		for idx := range positions {
			if first == -1 || idx < first {
				first = idx
			}
		}
		qvars[name] = &varInfo{perm: true, firstGoal: first}
	}
	cx.vars = qvars
	cx.permN = assignPermSlots(qvars)
	cx.barrier = -1
	if needsCutBarrier(q.Goals) {
		cx.barrier = cx.permN
		cx.permN++
	}
	cx.nextX = maxGoalArity(q.Goals) + 1

	cx.emitClauseBody(q.Goals)
	recordSymbols(c.sym, qvars)

	vars = make(map[string]instr.Operand, len(qvars))
	for name, vi := range qvars {
		vars[name] = vi.op
	}

	code, patches, err = lk.link()
	return code, patches, vars, err
}

// compileClause compiles one clause's head and body into cx's shared
// linker, having first classified its variables and pre-assigned Y slots.
func (cx *clauseCtx) compileClause(cl *ast.Clause) error {
	cx.vars = classify(cl.Head, cl.Body)
	cx.permN = assignPermSlots(cx.vars)
	cx.barrier = -1
	if needsCutBarrier(cl.Body) {
		cx.barrier = cx.permN
		cx.permN++
	}
	cx.nextX = maxCallArity(cl.Head, cl.Body) + 1

	// Head matching may already write Y slots, so a clause with permanent
	// variables allocates its frame (and records its cut barrier) first.
	if cx.permN > 0 {
		cx.emit(opAllocate(cx.permN))
		if cx.barrier >= 0 {
			cx.emit(opGetLevel(stackOperand(cx.barrier)))
		}
		cx.emitHead(cl.Head)
		for i, g := range cl.Body {
			cx.emitGoal(g, i == len(cl.Body)-1, true)
		}
		recordSymbols(cx.c.sym, cx.vars)
		return nil
	}
	cx.emitHead(cl.Head)
	cx.emitClauseBody(cl.Body)
	recordSymbols(cx.c.sym, cx.vars)
	return nil
}
