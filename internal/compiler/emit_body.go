package compiler

import "github.com/rupertlssmith/gowam/internal/ast"

// emitArgs builds a goal's arguments into registers 1..len(args), ready for
// call/execute/call_var/a built-in's fixed-register convention.
func (cx *clauseCtx) emitArgs(args []ast.Term) {
	for i, a := range args {
		cx.buildInto(i+1, a)
	}
}

// buildInto constructs term and places the result in register reg, via
// put_struc/put_list/put_constant/put_var/put_val. A nested compound
// argument is built first, recursively, into a register of its own — the
// construct-side mirror of emitUnifySub's hoisting, but depth-first instead
// of queued: put_structure/put_list only capture "whatever gets written by
// the very next N set_* instructions" as that structure's arguments, so
// any nested structure's own cells must already be complete, elsewhere on
// the heap, before this level's set_value can reference it.
func (cx *clauseCtx) buildInto(reg int, t ast.Term) {
	switch v := t.(type) {
	case *ast.Var:
		if v.Anonymous() {
			cx.emit(opPutVoid(1, reg))
			return
		}
		op, first := cx.operandFor(v.Name)
		if first {
			cx.emit(opPutVar(op, reg))
		} else {
			cx.emit(opPutVal(op, reg))
		}
	case *ast.Atom:
		cx.emit(opPutConstant(cx.functorRef(v.Name, 0), reg))
	case *ast.Int:
		cx.emit(opPutConstant(cx.intFunctorRef(v.Value), reg))
	case *ast.Compound:
		isCons := v.Functor == ast.ConsFunctor && len(v.Args) == ast.ConsArity
		subRegs := make([]int, len(v.Args))
		for i, a := range v.Args {
			if _, ok := a.(*ast.Compound); ok {
				r := cx.nextX
				cx.nextX++
				cx.buildInto(r, a)
				subRegs[i] = r
			}
		}
		if isCons {
			cx.emit(opPutList(reg))
		} else {
			cx.emit(opPutStruc(cx.functorRef(v.Functor, len(v.Args)), reg))
		}
		cx.emitSetArgs(v.Args, subRegs)
	}
}

// emitSetArgs compiles a structure/list's argument terms in order,
// collapsing each maximal run of singleton anonymous variables into a
// single set_void k (spec.md Phase 9's peephole optimization) instead of
// one set_void 1 per anonymous argument.
func (cx *clauseCtx) emitSetArgs(args []ast.Term, subRegs []int) {
	i := 0
	for i < len(args) {
		if isAnonVar(args[i]) {
			j := i
			for j < len(args) && isAnonVar(args[j]) {
				j++
			}
			cx.emit(opSetVoid(j - i))
			i = j
			continue
		}
		cx.emitSetArg(args[i], subRegs[i])
		i++
	}
}

// emitSetArg compiles one set_* slot of a structure/list being built: a
// leaf value directly, or set_value referencing a register a prior buildInto
// call already finished constructing.
func (cx *clauseCtx) emitSetArg(t ast.Term, subReg int) {
	switch v := t.(type) {
	case *ast.Var:
		op, first := cx.operandFor(v.Name)
		if first {
			cx.emit(opSetVar(op))
		} else {
			cx.emit(opSetVal(op))
		}
	case *ast.Atom:
		cx.emit(opSetConstant(cx.functorRef(v.Name, 0)))
	case *ast.Int:
		cx.emit(opSetConstant(cx.intFunctorRef(v.Value)))
	case *ast.Compound:
		cx.emit(opSetVal(regOperand(subReg)))
	}
}

// emitClauseBody compiles a (possibly empty) comma-flattened goal list: the
// environment prologue (allocate + get_level if a cut barrier is needed),
// then each goal in turn with last-call optimization on the final one.
func (cx *clauseCtx) emitClauseBody(body []ast.Term) {
	hasEnv := cx.permN > 0

	if len(body) == 0 {
		cx.emit(opProceed())
		return
	}

	if hasEnv {
		cx.emit(opAllocate(cx.permN))
	}
	if cx.barrier >= 0 {
		cx.emit(opGetLevel(stackOperand(cx.barrier)))
	}
	for i, g := range body {
		cx.emitGoal(g, i == len(body)-1, hasEnv)
	}
}

// emitCut compiles a "!" goal: neck_cut when nothing has run since clause
// entry (this cut is literally the clause's first body goal, outside any
// disjunction), cut Ybarrier otherwise.
func (cx *clauseCtx) emitCut() {
	if cx.barrier >= 0 {
		cx.emit(opCut(stackOperand(cx.barrier)))
	} else {
		cx.emit(opNeckCut())
	}
}

// emitTail closes out a clause/query's final goal position: pop the
// environment frame (if one was allocated) and return to the caller.
func (cx *clauseCtx) emitTail(hasEnv bool) {
	if hasEnv {
		cx.emit(opDeallocate())
	}
	cx.emit(opProceed())
}

// goalParts reports a goal term's dispatch key and arguments. A bare
// variable goal is an implicit call/1, matching common Prolog meta-call
// behavior.
func goalParts(g ast.Term) (name string, arity int, args []ast.Term) {
	switch v := g.(type) {
	case *ast.Atom:
		return v.Name, 0, nil
	case *ast.Compound:
		return v.Functor, len(v.Args), v.Args
	case *ast.Var:
		return ast.CallFunctor, 1, []ast.Term{v}
	default:
		return "", 0, nil
	}
}

// emitGoal compiles one body goal: a built-in's fused strategy, or an
// ordinary call/execute to a user predicate via the call table.
func (cx *clauseCtx) emitGoal(g ast.Term, last, hasEnv bool) {
	name, arity, args := goalParts(g)

	if e, ok := cx.c.builtins.Lookup(name, arity); ok {
		cx.emitBuiltin(e, args, last, hasEnv)
		return
	}

	cx.emitArgs(args)
	fref := cx.functorRef(name, arity)
	if last {
		if hasEnv {
			cx.emit(opDeallocate())
		}
		cx.emit(opExecute(fref))
	} else {
		cx.emit(opCall(fref))
	}
}
